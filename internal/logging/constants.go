package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
	FieldDelimiter  = "delimiter"
	FieldLine       = "line"
	FieldCount      = "count"
	FieldSkipped    = "skipped"
	FieldError      = "error"
	FieldReason     = "reason"
	FieldDuration   = "duration_ms"

	FieldDate        = "date"
	FieldSector      = "sector"
	FieldFuel        = "fuel_type"
	FieldEra         = "era"
	FieldRate        = "rate_per_liter"
	FieldVolume      = "volume_liters"
	FieldAmount      = "amount_chf"
	FieldMachine     = "machine_id"
	FieldInvoice     = "invoice_number"
	FieldTable       = "rate_table"
	FieldReportID    = "report_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldRemoteAddr  = "remote_addr"
	FieldRequestID   = "request_id"
	FieldHTTPStatus  = "http_status"
	FieldWorkerCount = "workers"
)
