// Package models defines data structures shared by the pipeline and its writers.
package models

// CleanRecord is the public form of one pharmacy row. Field order is the JSON key order.
type CleanRecord struct {
	ID            *int   `json:"id"`
	Pref          string `json:"pref"`
	Muni          string `json:"muni"`
	Name          string `json:"name"`
	Addr          string `json:"addr"`
	Tel           string `json:"tel"`
	URL           string `json:"url"`
	Hours         string `json:"hours"`
	AfterHours    string `json:"afterHours"`
	AfterHoursTel string `json:"afterHoursTel"`
	Privacy       string `json:"privacy"`
	CallAhead     string `json:"callAhead"`
	Notes         string `json:"notes"`
}

// RecordField pairs a clean-table column with the CleanRecord key it feeds.
type RecordField struct {
	Column string
	Key    string
}

// RecordFields is the projection from clean-table columns to public keys, in key order.
var RecordFields = []RecordField{
	{Column: ColID, Key: "id"},
	{Column: ColPref, Key: "pref"},
	{Column: ColMunicipality, Key: "muni"},
	{Column: ColName, Key: "name"},
	{Column: ColAddressNormalized, Key: "addr"},
	{Column: ColPhoneDigits, Key: "tel"},
	{Column: ColHomepage, Key: "url"},
	{Column: ColHours, Key: "hours"},
	{Column: ColAfterHours, Key: "afterHours"},
	{Column: ColAfterHoursTelDigits, Key: "afterHoursTel"},
	{Column: ColPrivacy, Key: "privacy"},
	{Column: ColCallAhead, Key: "callAhead"},
	{Column: ColNotes, Key: "notes"},
}

// Set assigns a string value to the field named by its JSON key. The id key is ignored.
func (r *CleanRecord) Set(key, value string) {
	switch key {
	case "pref":
		r.Pref = value
	case "muni":
		r.Muni = value
	case "name":
		r.Name = value
	case "addr":
		r.Addr = value
	case "tel":
		r.Tel = value
	case "url":
		r.URL = value
	case "hours":
		r.Hours = value
	case "afterHours":
		r.AfterHours = value
	case "afterHoursTel":
		r.AfterHoursTel = value
	case "privacy":
		r.Privacy = value
	case "callAhead":
		r.CallAhead = value
	case "notes":
		r.Notes = value
	}
}

// Strings returns the text fields keyed by JSON name.
func (r CleanRecord) Strings() map[string]string {
	return map[string]string{
		"pref":          r.Pref,
		"muni":          r.Muni,
		"name":          r.Name,
		"addr":          r.Addr,
		"tel":           r.Tel,
		"url":           r.URL,
		"hours":         r.Hours,
		"afterHours":    r.AfterHours,
		"afterHoursTel": r.AfterHoursTel,
		"privacy":       r.Privacy,
		"callAhead":     r.CallAhead,
		"notes":         r.Notes,
	}
}
