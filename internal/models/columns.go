package models

// Source columns of the published spreadsheet.
const (
	ColID            = "薬局等番号"
	ColPref          = "都道府県"
	ColName          = "薬局等名称"
	ColAddress       = "住所"
	ColHours         = "開局等時間"
	ColNotes         = "備考"
	ColPrivacy       = "プライバシー確保策"
	ColCallAhead     = "事前電話連絡"
	ColAfterHours    = "時間外対応"
	ColPhone         = "電話番号"
	ColAfterHoursTel = "時間外の電話番号"
	ColHomepage      = "HP"

	// The pharmacist-count header spans three cells; the last two arrive unnamed.
	ColPharmacistsHeader = "販売可能薬剤師数・性別"
	ColUnnamedIndex      = "Unnamed: 0"
	ColUnnamedMale       = "Unnamed: 7"
	ColUnnamedNoAnswer   = "Unnamed: 8"
)

// Columns added by the pipeline.
const (
	ColPharmacistsFemale   = "販売可能薬剤師数_女性"
	ColPharmacistsMale     = "販売可能薬剤師数_男性"
	ColPharmacistsNoAnswer = "販売可能薬剤師数_答えたくない"

	ColPhoneDigits         = "電話番号_数字"
	ColAfterHoursTelDigits = "時間外の電話番号_数字"

	ColAddressNormalized = "住所_正規化"
	ColAddressNoPref     = "住所_都道府県除く"
	ColMunicipality      = "市区町村_推定"
	ColAddressRest       = "住所_残り"

	ColHasAfterHours  = "時間外対応_有無"
	ColNeedsCallAhead = "事前電話連絡_要否"
	ColAsOf           = "データ時点"
	ColSourcePageURL  = "データ出典_URL"
	ColSourceFileURL  = "データファイル_URL"
)

// TextColumns are trimmed and cleared of missing markers before anything else.
var TextColumns = []string{
	ColPref,
	ColName,
	ColAddress,
	ColHours,
	ColNotes,
	ColPrivacy,
	ColCallAhead,
	ColAfterHours,
	ColPhone,
	ColAfterHoursTel,
	ColHomepage,
}
