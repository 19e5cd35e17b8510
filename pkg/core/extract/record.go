// Package extract parses a report workbook into the numeric fields tracked
// by the feed. Extraction is pure: given identical payload bytes it produces
// identical records and performs no I/O.
package extract

// Semantic field names, used by the positional fallback configuration.
const (
	FieldOnWarrant         = "on_warrant"
	FieldCancelledWarrants = "cancelled_warrants"
	FieldTotalLiveWarrants = "total_live_warrants"
	FieldDeliveredIn       = "delivered_in"
	FieldDeliveredOut      = "delivered_out"
	FieldNetChange         = "net_change"
)

// Record is the set of fields pulled from one report workbook. Numeric
// fields are nil when the source column could not be located or its value
// did not parse as a number.
type Record struct {
	ReportDate string

	OnWarrant         *float64
	CancelledWarrants *float64
	TotalLiveWarrants *float64
	DeliveredIn       *float64
	DeliveredOut      *float64
	NetChange         *float64
}

// Usable reports whether the record carries at least one of the two
// load-bearing fields. A record failing this check must fail the run.
func (r Record) Usable() bool {
	return r.OnWarrant != nil || r.TotalLiveWarrants != nil
}

// set assigns a value to the named semantic field.
func (r *Record) set(field string, v *float64) {
	switch field {
	case FieldOnWarrant:
		r.OnWarrant = v
	case FieldCancelledWarrants:
		r.CancelledWarrants = v
	case FieldTotalLiveWarrants:
		r.TotalLiveWarrants = v
	case FieldDeliveredIn:
		r.DeliveredIn = v
	case FieldDeliveredOut:
		r.DeliveredOut = v
	case FieldNetChange:
		r.NetChange = v
	}
}
