package models

import "time"

// GeneratedAtLayout is local time to the second, without zone.
const GeneratedAtLayout = "2006-01-02T15:04:05"

// Meta describes one snapshot.
type Meta struct {
	AsOf        string `json:"asOf"`
	SourcePage  string `json:"sourcePage"`
	SourceXlsx  string `json:"sourceXlsx"`
	GeneratedAt string `json:"generatedAt"`
	Records     int    `json:"records"`
}

// NewMeta builds snapshot metadata stamped with now.
func NewMeta(asOf, sourcePage, sourceXlsx string, records int, now time.Time) Meta {
	return Meta{
		AsOf:        asOf,
		SourcePage:  sourcePage,
		SourceXlsx:  sourceXlsx,
		GeneratedAt: now.Local().Format(GeneratedAtLayout),
		Records:     records,
	}
}

// Payload is the JSON document consumed by the site and the bot.
type Payload struct {
	Meta Meta          `json:"meta"`
	Data []CleanRecord `json:"data"`
}

// Snapshot is one generation of records for an as-of date.
type Snapshot struct {
	Meta    Meta
	Records []CleanRecord
}

// Payload returns the JSON form of the snapshot. Data is never nil.
func (s Snapshot) Payload() Payload {
	data := s.Records
	if data == nil {
		data = []CleanRecord{}
	}

	return Payload{Meta: s.Meta, Data: data}
}
