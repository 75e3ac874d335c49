package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/Veraticus/tradeflow/internal/confidence"
	"github.com/Veraticus/tradeflow/internal/model"
)

// StatsKey is the reserved key under which Fields reports normalization statistics.
const StatsKey = "_normalization_stats"

// Options configures a Normalizer.
type Options struct {
	DefaultBureau      model.CreditBureau
	SourceQuality      float64 // Scales computed confidence scores, 0-1
	MaskAccountNumbers bool
	MaskSSN            bool
}

// DefaultOptions returns options that mask sensitive identifiers.
func DefaultOptions() Options {
	return Options{
		DefaultBureau:      model.BureauUnknown,
		SourceQuality:      1.0,
		MaskAccountNumbers: true,
		MaskSSN:            true,
	}
}

// Normalizer applies the field normalizers across whole records.
// It holds only configuration and is safe for concurrent use.
type Normalizer struct {
	logger *slog.Logger
	opts   Options
}

// New creates a Normalizer. A nil logger uses slog.Default.
func New(opts Options, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultBureau == "" {
		opts.DefaultBureau = model.BureauUnknown
	}
	if opts.SourceQuality <= 0 || opts.SourceQuality > 1 {
		opts.SourceQuality = 1.0
	}
	return &Normalizer{opts: opts, logger: logger}
}

// TradelineRecord is the result of normalizing one raw tradeline.
type TradelineRecord struct {
	Extra     model.RawRecord // Unrecognized input keys, passed through unchanged
	Original  model.RawRecord // Copy of the input for audit
	fields    map[string]any
	Stats     model.NormalizationStats
	Tradeline model.Tradeline
}

// Fields returns the normalized record as a mapping: canonical keys with
// canonical values, pass-through keys, and the statistics under StatsKey.
func (r TradelineRecord) Fields() model.RawRecord {
	return mergeFields(r.fields, r.Extra, r.Stats)
}

// ConsumerRecord is the result of normalizing raw consumer information.
type ConsumerRecord struct {
	Extra    model.RawRecord
	Original model.RawRecord
	fields   map[string]any
	Stats    model.NormalizationStats
	Consumer model.ConsumerInfo
}

// Fields returns the normalized consumer record as a mapping.
func (r ConsumerRecord) Fields() model.RawRecord {
	return mergeFields(r.fields, r.Extra, r.Stats)
}

func mergeFields(fields map[string]any, extra model.RawRecord, stats model.NormalizationStats) model.RawRecord {
	out := make(model.RawRecord, len(fields)+len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	out[StatsKey] = map[string]any{
		"fields_processed": stats.FieldsProcessed,
		"total_fields":     stats.TotalFields,
		"success_rate":     stats.SuccessRate,
		"failed_fields":    slices.Clone(stats.FailedFields),
	}
	return out
}

// recordReader tracks which input keys a normalization pass consumed and
// which recognized fields failed to parse.
type recordReader struct {
	raw      model.RawRecord
	used     map[string]bool
	fields   map[string]any
	failed   []string
	notes    []string
	recorded int
}

func newRecordReader(raw model.RawRecord) *recordReader {
	return &recordReader{
		raw:    raw,
		used:   make(map[string]bool, len(raw)),
		fields: make(map[string]any, len(raw)),
	}
}

// take returns the first present key among the canonical name and its
// aliases. Every matching key is marked consumed so aliases never leak into
// the pass-through set.
func (rr *recordReader) take(canonical string, aliases ...string) (any, bool) {
	var (
		value any
		found bool
	)
	for _, k := range append([]string{canonical}, aliases...) {
		v, ok := rr.raw[k]
		if !ok {
			continue
		}
		if !rr.used[k] {
			rr.used[k] = true
			rr.recorded++
		}
		if !found && v != nil {
			value, found = v, true
		}
	}
	return value, found
}

// fail records a field whose value was present but could not be typed. The
// original value is kept in the mapping view so a second pass fails the same way.
func (rr *recordReader) fail(field string, original any) {
	rr.failed = append(rr.failed, field)
	rr.notes = append(rr.notes, fmt.Sprintf("could not normalize %s value %q", field, cast.ToString(original)))
	rr.fields[field] = original
}

func (rr *recordReader) set(field string, value any) {
	rr.fields[field] = value
}

// finish partitions unconsumed keys into the pass-through set and computes statistics.
func (rr *recordReader) finish() (model.RawRecord, model.NormalizationStats) {
	extra := make(model.RawRecord)
	total := 0
	for k, v := range rr.raw {
		if k == StatsKey {
			continue
		}
		total++
		if !rr.used[k] {
			extra[k] = v
		}
	}

	processed := rr.recorded - len(rr.failed)
	if processed < 0 {
		processed = 0
	}
	stats := model.NormalizationStats{
		FieldsProcessed: processed,
		TotalFields:     total,
		FailedFields:    rr.failed,
	}
	stats.SuccessRate = float64(processed) / float64(max(total, 1))
	return extra, stats
}

// Tradeline normalizes a raw tradeline record. The input is never modified.
func (n *Normalizer) Tradeline(raw model.RawRecord) TradelineRecord {
	rr := newRecordReader(raw)
	var t model.Tradeline

	if v, ok := rr.take("creditor_name", "creditor", "company", "company_name", "lender"); ok {
		t.CreditorName = CreditorName(v)
		rr.set("creditor_name", t.CreditorName)
	}

	if v, ok := rr.take("account_number", "account", "account_no", "acct_number"); ok {
		t.AccountNumber = AccountNumber(v, n.opts.MaskAccountNumbers)
		rr.set("account_number", t.AccountNumber)
	}

	if v, ok := rr.take("account_type", "type"); ok && Present(v) {
		label := AccountType(v)
		if label == UnknownAccountType && !isUnknownLabel(v) {
			t.AccountType = model.AccountTypeOther
			rr.fail("account_type", v)
		} else {
			t.AccountType = model.ParseAccountType(label)
			rr.set("account_type", string(t.AccountType))
		}
	}

	t.Balance = takeMoney(rr, "balance", "current_balance", "account_balance", "balance_amount")
	t.CreditLimit = takeMoney(rr, "credit_limit", "limit", "high_credit", "credit_line")
	t.MonthlyPayment = takeMoney(rr, "monthly_payment", "payment_amount", "scheduled_payment")

	paymentStatus, hasPayment := rr.take("payment_status", "status")
	accountStatus, hasAccount := rr.take("account_status")
	if hasAccount {
		if label := PaymentStatus(accountStatus); label != "" {
			rr.set("account_status", label)
		}
	}
	if hasPayment {
		if label := PaymentStatus(paymentStatus); label != "" {
			rr.set("payment_status", label)
			t.StatusText = label
		}
	}
	if t.StatusText == "" && hasAccount {
		t.StatusText = PaymentStatus(accountStatus)
	}
	if t.StatusText != "" {
		t.PaymentStatus = model.ParsePaymentStatus(t.StatusText)
	}

	t.DateOpened = takeDate(rr, "date_opened", "opened_date", "open_date", "opened")
	t.DateClosed = takeDate(rr, "date_closed", "closed_date", "close_date", "closed")

	if v, ok := rr.take("payment_history", "history"); ok {
		history, valid := paymentHistory(v)
		if valid {
			t.PaymentHistory = history
			rr.set("payment_history", slices.Clone(history))
		} else {
			rr.fail("payment_history", v)
		}
	}

	if v, ok := rr.take("credit_bureau", "bureau", "source_bureau"); ok {
		t.CreditBureau = CreditBureau(v)
	} else {
		t.CreditBureau = n.opts.DefaultBureau
	}
	rr.set("credit_bureau", string(t.CreditBureau))

	if v, ok := rr.take("is_negative", "negative", "is_derogatory"); ok && Present(v) {
		if b, valid := Bool(v); valid {
			t.IsNegative = b
			rr.set("is_negative", b)
		} else {
			rr.fail("is_negative", v)
			t.IsNegative = t.PaymentStatus.IsDerogatory()
		}
	} else {
		t.IsNegative = t.PaymentStatus.IsDerogatory()
	}

	var inputNotes []string
	if v, ok := rr.take("notes", "normalization_notes", "remarks", "comments"); ok {
		inputNotes = noteList(v)
	}

	if v, ok := rr.take("confidence_score", "confidence"); ok && Present(v) {
		if c, valid := Confidence(v); valid {
			t.Confidence = c
		} else {
			rr.fail("confidence_score", v)
			t.Confidence = confidence.Tradeline(rr.fields, n.opts.SourceQuality)
		}
	} else {
		t.Confidence = confidence.Tradeline(rr.fields, n.opts.SourceQuality)
	}
	if !slices.Contains(rr.failed, "confidence_score") {
		rr.set("confidence_score", t.Confidence)
	}

	t.ParseFailures = slices.Clone(rr.failed)
	t.Notes = appendUnique(inputNotes, rr.notes...)
	if len(t.Notes) > 0 {
		rr.set("notes", slices.Clone(t.Notes))
	}

	extra, stats := rr.finish()
	n.logger.Debug("Normalized tradeline",
		"creditor", t.CreditorName,
		"fields_processed", stats.FieldsProcessed,
		"total_fields", stats.TotalFields,
		"failed_fields", stats.FailedFields)

	return TradelineRecord{
		Tradeline: t,
		Extra:     extra,
		Original:  raw.Clone(),
		Stats:     stats,
		fields:    rr.fields,
	}
}

// Tradelines normalizes each record and aggregates the statistics.
func (n *Normalizer) Tradelines(raws []model.RawRecord) ([]TradelineRecord, model.NormalizationStats) {
	records := make([]TradelineRecord, 0, len(raws))
	stats := make([]model.NormalizationStats, 0, len(raws))
	for _, raw := range raws {
		rec := n.Tradeline(raw)
		records = append(records, rec)
		stats = append(stats, rec.Stats)
	}
	return records, MergeStats(stats...)
}

// Consumer normalizes raw consumer information. The input is never modified.
func (n *Normalizer) Consumer(raw model.RawRecord) ConsumerRecord {
	rr := newRecordReader(raw)
	var c model.ConsumerInfo

	if v, ok := rr.take("name", "full_name", "consumer_name"); ok {
		c.Name = Name(v)
		rr.set("name", c.Name)
	}

	if v, ok := rr.take("ssn", "social_security_number"); ok && Present(v) {
		if ssn := SSN(v, n.opts.MaskSSN); ssn != "" {
			c.SSN = ssn
			rr.set("ssn", ssn)
		} else {
			rr.fail("ssn", v)
		}
	}

	if v, ok := rr.take("date_of_birth", "dob", "birth_date"); ok && Present(v) {
		if d := Date(v); d != nil {
			c.DateOfBirth = d
			rr.set("date_of_birth", FormatDate(d))
		} else {
			rr.fail("date_of_birth", v)
		}
	}

	if v, ok := rr.take("addresses", "address"); ok && Present(v) {
		addrs, allValid := addressList(v)
		c.Addresses = addrs
		if !allValid {
			rr.failed = append(rr.failed, "addresses")
			rr.notes = append(rr.notes, "dropped unparseable address entries")
		}
		view := make([]map[string]any, 0, len(addrs))
		for _, a := range addrs {
			view = append(view, map[string]any{
				"street":   a.Street,
				"city":     a.City,
				"state":    a.State,
				"zip_code": a.ZipCode,
				"type":     a.Type,
			})
		}
		rr.set("addresses", view)
	}

	if v, ok := rr.take("phone_numbers", "phones", "phone"); ok && Present(v) {
		phones, allValid := phoneList(v)
		c.PhoneNumbers = phones
		if !allValid {
			rr.failed = append(rr.failed, "phone_numbers")
			rr.notes = append(rr.notes, "dropped unparseable phone numbers")
		}
		rr.set("phone_numbers", slices.Clone(phones))
	}

	if v, ok := rr.take("confidence_score", "confidence"); ok && Present(v) {
		if score, valid := Confidence(v); valid {
			c.Confidence = score
		} else {
			rr.fail("confidence_score", v)
			c.Confidence = confidence.Consumer(rr.fields, n.opts.SourceQuality)
		}
	} else {
		c.Confidence = confidence.Consumer(rr.fields, n.opts.SourceQuality)
	}
	if !slices.Contains(rr.failed, "confidence_score") {
		rr.set("confidence_score", c.Confidence)
	}

	c.ParseFailures = slices.Clone(rr.failed)

	extra, stats := rr.finish()
	n.logger.Debug("Normalized consumer info",
		"fields_processed", stats.FieldsProcessed,
		"total_fields", stats.TotalFields,
		"failed_fields", stats.FailedFields)

	return ConsumerRecord{
		Consumer: c,
		Extra:    extra,
		Original: raw.Clone(),
		Stats:    stats,
		fields:   rr.fields,
	}
}

func takeMoney(rr *recordReader, canonical string, aliases ...string) *decimal.Decimal {
	v, ok := rr.take(canonical, aliases...)
	if !ok || !Present(v) {
		return nil
	}
	d := Currency(v)
	if d == nil {
		rr.fail(canonical, v)
		return nil
	}
	rr.set(canonical, d.String())
	return d
}

func takeDate(rr *recordReader, canonical string, aliases ...string) *time.Time {
	v, ok := rr.take(canonical, aliases...)
	if !ok || !Present(v) {
		return nil
	}
	d := Date(v)
	if d == nil {
		rr.fail(canonical, v)
		return nil
	}
	rr.set(canonical, FormatDate(d))
	return d
}

// MergeStats combines per-record statistics into a batch total.
func MergeStats(stats ...model.NormalizationStats) model.NormalizationStats {
	var out model.NormalizationStats
	for _, s := range stats {
		out.FieldsProcessed += s.FieldsProcessed
		out.TotalFields += s.TotalFields
		for _, f := range s.FailedFields {
			if !slices.Contains(out.FailedFields, f) {
				out.FailedFields = append(out.FailedFields, f)
			}
		}
	}
	out.SuccessRate = float64(out.FieldsProcessed) / float64(max(out.TotalFields, 1))
	return out
}

// CreditBureau resolves a bureau name, falling back to BureauUnknown.
func CreditBureau(v any) model.CreditBureau {
	s, ok := text(v)
	if !ok {
		return model.BureauUnknown
	}
	key := strings.ReplaceAll(collapse(s), " ", "")
	switch {
	case strings.Contains(key, "EXPERIAN"):
		return model.BureauExperian
	case strings.Contains(key, "EQUIFAX"):
		return model.BureauEquifax
	case strings.Contains(key, "TRANSUNION"), key == "TU":
		return model.BureauTransUnion
	default:
		return model.BureauUnknown
	}
}

// Confidence reads a confidence score given as a fraction, a percentage
// number or a percentage string. Returns false outside those ranges. Without
// a percent sign, values strictly between 1 and 2 are malformed fractions.
func Confidence(v any) (float64, bool) {
	percent := false
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		percent = strings.HasSuffix(s, "%")
		v = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || f < 0 || f > 100 {
		return 0, false
	}
	if percent {
		return math.Round(f*10) / 1000, true
	}
	if f > 1 && f < 2 {
		return 0, false
	}
	if f > 1 {
		f /= 100
	}
	return math.Round(f*1000) / 1000, true
}

func isUnknownLabel(v any) bool {
	s, _ := text(v)
	switch collapse(s) {
	case "UNKNOWN", "UNKNOWN TYPE":
		return true
	default:
		return false
	}
}

// paymentHistory accepts a list or a comma or pipe separated string and
// normalizes each entry as a payment status.
func paymentHistory(v any) ([]string, bool) {
	var entries []any
	switch x := v.(type) {
	case []any:
		entries = x
	case []string:
		for _, s := range x {
			entries = append(entries, s)
		}
	case string:
		for _, s := range strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == '|' }) {
			entries = append(entries, s)
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if label := PaymentStatus(e); label != "" {
			out = append(out, label)
		}
	}
	return out, true
}

func addressList(v any) ([]model.Address, bool) {
	var entries []any
	switch x := v.(type) {
	case []any:
		entries = x
	case []map[string]any:
		for _, m := range x {
			entries = append(entries, m)
		}
	case []string:
		for _, s := range x {
			entries = append(entries, s)
		}
	default:
		entries = []any{v}
	}

	out := make([]model.Address, 0, len(entries))
	allValid := true
	for _, e := range entries {
		addr, ok := Address(e)
		if !ok {
			allValid = false
			continue
		}
		out = append(out, addr)
	}
	return out, allValid
}

func phoneList(v any) ([]string, bool) {
	var entries []any
	switch x := v.(type) {
	case []any:
		entries = x
	case []string:
		for _, s := range x {
			entries = append(entries, s)
		}
	default:
		entries = []any{v}
	}

	out := make([]string, 0, len(entries))
	allValid := true
	for _, e := range entries {
		p := Phone(e)
		if p == "" {
			allValid = false
			continue
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out, allValid
}

func noteList(v any) []string {
	switch x := v.(type) {
	case []string:
		return appendUnique(nil, x...)
	case []any:
		var out []string
		for _, e := range x {
			if s, ok := text(e); ok {
				out = appendUnique(out, s)
			}
		}
		return out
	}
	if s, ok := text(v); ok {
		return []string{s}
	}
	return nil
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
