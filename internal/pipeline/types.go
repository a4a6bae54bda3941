// Package pipeline transforms normalized PLC variable rows into
// handler-annotated output. It has no I/O dependencies: the caller supplies
// a row collection (column name -> string value) and receives an enriched
// row collection, typed per-variable records, and a handler summary.
package pipeline

// Column names recognized in the input row set and added to the output.
const (
	ColName          = "plcVariableName"
	ColRegister      = "mbRegister"
	ColFunctionCode  = "mbFunctionCode"
	ColType          = "mbType"
	ColMultiplier    = "multiplier"
	ColAddressOffset = "addressOffset"
	ColUsed          = "mbUsed"
	ColMQTTName      = "mqttName"
	ColMQTTPayload   = "mqttPayload"

	ColTypeSize      = "mbTypeSize"
	ColHandler       = "mbHandler"
	ColHandlerOffset = "mbHandlerOffset"
	ColIdx           = "mbIdx"
)

// HandlerCapacity is the maximum occupied width of a single handler,
// in 16-bit register units.
const HandlerCapacity = 124

// Row is one normalized CSV row mapping column names to raw string values.
type Row map[string]string

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Variable is one base row from the input. It is the unit that survives to
// final output: expansion duplicates are ephemeral and never replace it.
type Variable struct {
	Name          string
	Register      int
	FunctionCode  string
	Type          string
	Multiplier    int
	AddressOffset int
	Used          bool

	// BaseIndex is the variable's position in the filtered input,
	// used to join expansion results back onto base rows.
	BaseIndex int

	// Source is the originating normalized row.
	Source Row

	// Filled in by pipeline stages.
	TypeSize      int // bits
	Handler       int // handler id at iteration 0
	HandlerOffset int // handler id delta between iterations 1 and 0
	Idx           int // 1-based position within the handler
}

// ExpandedVariable is one (variable, iteration) pair. A variable with
// multiplier m yields m expansions with registers shifted by
// iteration*addressOffset.
type ExpandedVariable struct {
	BaseIndex    int
	Iteration    int
	Register     int
	FunctionCode string
	TypeSize     int // bits
	Handler      int
}

// WidthUnits returns the number of 16-bit registers the expansion occupies.
func (e ExpandedVariable) WidthUnits() int {
	return widthUnits(e.TypeSize)
}

// HandlerSpan describes the expanded-address footprint of one handler.
type HandlerSpan struct {
	ID     int `json:"id"`
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Result is the output of a full pipeline run.
type Result struct {
	// Columns is the output column order: the input header (minus
	// mqttPayload) followed by any of the four added columns not
	// already present.
	Columns []string

	// Rows are the enriched base rows, in input order.
	Rows []Row

	// Records are the typed per-variable output records, in input order.
	Records []map[string]any

	// Spans summarize every handler over the expanded rows, sorted by id.
	Spans []HandlerSpan

	// HandlerCount is the total number of handlers assigned.
	HandlerCount int
}

// widthUnits converts a bit width to 16-bit register units, rounding up.
// Widths are always positive, so the result is at least 1.
func widthUnits(bits int) int {
	if bits <= 16 {
		return 1
	}
	return (bits + 15) / 16
}
