package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ecpharm/internal/logger"
	"ecpharm/internal/models"
	"ecpharm/internal/sheet"
)

// Source identifies where a table came from. It is stamped on every row.
type Source struct {
	AsOf     string
	PageURL  string
	SheetURL string
}

// Report summarizes what the pipeline recovered from.
type Report struct {
	Rows                int
	MissingColumns      []string
	NullIDs             int
	EmptyMunicipalities int
	RuleHits            map[string]int
}

// Result is the output of one pipeline run.
type Result struct {
	Clean   *sheet.Frame
	Records []models.CleanRecord
	Report  Report
}

// Processor handles data processing and transformation.
type Processor struct {
	segmenter   *AddressSegmenter
	transformer *Transformer
	validator   *Validator
	log         *logger.Logger
}

// NewProcessor creates a new processor instance. log may be nil.
func NewProcessor(log *logger.Logger) *Processor {
	return &Processor{
		segmenter:   NewAddressSegmenter(),
		transformer: NewTransformer(),
		validator:   NewValidator(),
		log:         log,
	}
}

var headerRenames = map[string]string{
	models.ColPharmacistsHeader: models.ColPharmacistsFemale,
	models.ColUnnamedMale:       models.ColPharmacistsMale,
	models.ColUnnamedNoAnswer:   models.ColPharmacistsNoAnswer,
}

// Process cleans frame in place and projects it to public records.
// Absent columns are skipped. The row count never changes.
func (p *Processor) Process(frame *sheet.Frame, src Source) (*Result, error) {
	report := Report{
		Rows:     frame.Len(),
		RuleHits: make(map[string]int),
	}
	for _, rule := range p.segmenter.Rules() {
		report.RuleHits[rule] = 0
	}

	// 1. Fix the split pharmacist-count header
	if err := frame.Rename(headerRenames); err != nil {
		return nil, fmt.Errorf("failed to rename columns: %w", err)
	}
	frame.Drop(models.ColUnnamedIndex)

	// 2. Trim free text
	for _, col := range models.TextColumns {
		if !frame.Apply(col, func(v any) any { return Text(v) }) {
			report.MissingColumns = append(report.MissingColumns, col)
		}
	}

	// 3. Identifier
	if !frame.Apply(models.ColID, func(v any) any {
		if id, ok := ParseID(v); ok {
			return id
		}
		report.NullIDs++
		return nil
	}) {
		report.MissingColumns = append(report.MissingColumns, models.ColID)
		report.NullIDs = frame.Len()
	}

	// 4. Digit-only phones, added even when the source column is absent
	p.addDerived(frame, models.ColPhoneDigits, models.ColPhone, func(v any) any { return Phone(v) })
	p.addDerived(frame, models.ColAfterHoursTelDigits, models.ColAfterHoursTel, func(v any) any { return Phone(v) })

	// 5. Homepage
	frame.Apply(models.ColHomepage, func(v any) any { return URL(v) })

	// 6. Address
	parts := make([]AddressParts, frame.Len())
	for i := range parts {
		pref := cellText(frame, i, models.ColPref)
		addr := cellText(frame, i, models.ColAddress)

		var rule string
		parts[i], rule = p.segmenter.Split(pref, addr)
		if rule != "" {
			report.RuleHits[rule]++
		}

		if parts[i].Municipality == "" {
			report.EmptyMunicipalities++
		}

		if p.log != nil {
			p.log.Debug("Segmented address", "row", i, "rule", rule, "municipality", parts[i].Municipality)
		}
	}

	frame.SetColumn(models.ColAddressNormalized, func(i int) any { return parts[i].Normalized })
	frame.SetColumn(models.ColAddressNoPref, func(i int) any { return parts[i].WithoutPref })
	frame.SetColumn(models.ColMunicipality, func(i int) any { return parts[i].Municipality })
	frame.SetColumn(models.ColAddressRest, func(i int) any { return parts[i].Rest })

	// 7. Flags
	p.addFlag(frame, models.ColHasAfterHours, models.ColAfterHours, "有")
	p.addFlag(frame, models.ColNeedsCallAhead, models.ColCallAhead, "要")

	// 8. Provenance
	frame.SetColumn(models.ColAsOf, func(int) any { return src.AsOf })
	frame.SetColumn(models.ColSourcePageURL, func(int) any { return src.PageURL })
	frame.SetColumn(models.ColSourceFileURL, func(int) any { return src.SheetURL })

	records, err := p.transformer.Transform(frame)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	if err := p.validator.Validate(records); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &Result{Clean: frame, Records: records, Report: report}, nil
}

func (p *Processor) addDerived(frame *sheet.Frame, name, source string, fn func(any) any) {
	frame.SetColumn(name, func(i int) any {
		v, _ := frame.Value(i, source)
		return fn(v)
	})
}

func (p *Processor) addFlag(frame *sheet.Frame, name, source, marker string) {
	if !frame.Has(source) {
		return
	}

	frame.SetColumn(name, func(i int) any {
		return cellText(frame, i, source) == marker
	})
}

func cellText(frame *sheet.Frame, i int, col string) string {
	v, _ := frame.Value(i, col)
	return Text(v)
}

// ParseID reads a pharmacy number. Integers and integral decimals such as "12.0"
// are accepted; anything else is reported as not ok.
func ParseID(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		return floatID(val)
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}

		return floatID(f)
	default:
		return 0, false
	}
}

func floatID(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}

	return int(f), true
}
