package formatter

import (
	"fmt"
	"strings"

	"ecpharm/internal/models"
)

// unknownPrefecture labels records whose prefecture is blank.
const unknownPrefecture = "(不明)"

// PrefectureCount is the per-prefecture tally of one snapshot.
type PrefectureCount struct {
	Pref                string
	Records             int
	EmptyMunicipalities int
}

// CountByPrefecture tallies records per prefecture in order of first appearance.
func CountByPrefecture(records []models.CleanRecord) []PrefectureCount {
	var counts []PrefectureCount

	index := make(map[string]int)

	for _, r := range records {
		pref := r.Pref
		if pref == "" {
			pref = unknownPrefecture
		}

		i, ok := index[pref]
		if !ok {
			i = len(counts)
			index[pref] = i
			counts = append(counts, PrefectureCount{Pref: pref})
		}

		counts[i].Records++
		if r.Muni == "" {
			counts[i].EmptyMunicipalities++
		}
	}

	return counts
}

// Summary renders a markdown report of the snapshot.
func Summary(snap models.Snapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# 緊急避妊薬 販売可能薬局 %s\n\n", snap.Meta.AsOf)
	fmt.Fprintf(&sb, "- 出典: %s\n", snap.Meta.SourcePage)
	fmt.Fprintf(&sb, "- ファイル: %s\n", snap.Meta.SourceXlsx)
	fmt.Fprintf(&sb, "- 生成: %s\n", snap.Meta.GeneratedAt)
	fmt.Fprintf(&sb, "- 件数: %d\n\n", snap.Meta.Records)

	sb.WriteString("| 都道府県 | 件数 | 市区町村不明 |\n")
	sb.WriteString("| --- | --- | --- |\n")

	total, empty := 0, 0
	for _, c := range CountByPrefecture(snap.Records) {
		fmt.Fprintf(&sb, "| %s | %d | %d |\n", c.Pref, c.Records, c.EmptyMunicipalities)
		total += c.Records
		empty += c.EmptyMunicipalities
	}

	fmt.Fprintf(&sb, "| 合計 | %d | %d |\n", total, empty)

	return FormatMarkdown(sb.String())
}
