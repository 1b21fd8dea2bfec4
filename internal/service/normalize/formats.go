package normalize

import (
	"regexp"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/locator"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/normalize/parser"
)

// Built-in format keys.
const (
	FormatCrystal      = "crystal"
	FormatGatePass     = "gatepass"
	FormatMatrix       = "matrix"
	FormatPunchLog     = "punch-log"
	FormatInOut        = "inout-columns"
	FormatGateRegister = "gate-register"
	FormatMultiPunch   = "multi-punch"
	FormatPDFRegister  = "pdf-register"
	FormatPunchReport  = "punching-report"
)

// Header aliases, matched against locator.NormalizeLabel output.
var (
	colCode = locator.Column{
		Key:      parser.ColCode,
		Pattern:  regexp.MustCompile(`^(emp(loyee)? ?(code|id|no)|e ?code|code|user ?id|gp no|gate ?pass( no)?|ramco emp id|card ?no|pay ?code)$`),
		Required: true,
	}
	colName     = locator.Column{Key: parser.ColName, Pattern: regexp.MustCompile(`^(emp(loyee)? )?name$`)}
	colDate     = locator.Column{Key: parser.ColDate, Pattern: regexp.MustCompile(`^(attendance |punch |att )?date( in)?$`), Required: true}
	colIn       = locator.Column{Key: parser.ColIn, Pattern: regexp.MustCompile(`^((punch|first|check) ?)?in( ?time)?$|^time in$`)}
	colOut      = locator.Column{Key: parser.ColOut, Pattern: regexp.MustCompile(`^((punch|last|check) ?)?out( ?time)?$|^time out$`)}
	colDateOut  = locator.Column{Key: parser.ColDateOut, Pattern: regexp.MustCompile(`^date out$`)}
	colTime     = locator.Column{Key: parser.ColTime, Pattern: regexp.MustCompile(`^((punch|log) ?)?(date ?)?time$`), Required: true}
	colDir      = locator.Column{Key: parser.ColDirection, Pattern: regexp.MustCompile(`^(direction|in ?out|io|type|punch type|terminal|device|reader)$`)}
	colStatus   = locator.Column{Key: parser.ColStatus, Pattern: regexp.MustCompile(`^((att(endance)? )?status|remarks?)$`)}
	colShift    = locator.Column{Key: parser.ColShift, Pattern: regexp.MustCompile(`^((came in )?shift( code)?)$`)}
	colHours    = locator.Column{Key: parser.ColHours, Pattern: regexp.MustCompile(`^(working hours|work ?hrs|gross ?hours|total hours|hrs|duration)$`)}
	colOvertime = locator.Column{Key: parser.ColOvertime, Pattern: regexp.MustCompile(`^(over ?time|ot)$`)}
)

func required(c locator.Column) locator.Column {
	c.Required = true
	return c
}

func optional(c locator.Column) locator.Column {
	c.Required = false
	return c
}

// crystalStatuses is the vocabulary of the Crystal Reports muster roll.
var crystalStatuses = map[string]attendance.Status{
	"H":    attendance.StatusHoliday,
	"HO":   attendance.StatusHoliday,
	"WO":   attendance.StatusHoliday,
	"A":    attendance.StatusAbsent,
	"P":    attendance.StatusPresent,
	"½P":   attendance.StatusHalfDay,
	"0.5P": attendance.StatusHalfDay,
	".5P":  attendance.StatusHalfDay,
	"HD":   attendance.StatusHalfDay,
	"HALF": attendance.StatusHalfDay,
	"H½P":  attendance.StatusHalfDay,
	"½BH":  attendance.StatusHalfDay,
	"HP":   attendance.StatusHalfDay,
	"ML":   attendance.StatusOnLeave,
	"CO":   attendance.StatusOnLeave,
}

// registerStatuses is shared by the register style exports.
var registerStatuses = map[string]attendance.Status{
	"P": attendance.StatusPresent, "POW": attendance.StatusPresent, "POH": attendance.StatusPresent,
	"PWH": attendance.StatusPresent, "PRESENT": attendance.StatusPresent,

	"A": attendance.StatusAbsent, "A1": attendance.StatusAbsent, "AB": attendance.StatusAbsent,
	"ABSENT": attendance.StatusAbsent,

	"H": attendance.StatusHoliday, "HLD": attendance.StatusHoliday, "WOH": attendance.StatusHoliday,
	"WO": attendance.StatusHoliday, "HOLIDAY": attendance.StatusHoliday,

	"CL": attendance.StatusOnLeave, "PL": attendance.StatusOnLeave, "SL": attendance.StatusOnLeave,
	"EL": attendance.StatusOnLeave, "RL": attendance.StatusOnLeave, "LWP": attendance.StatusOnLeave,
	"SDL": attendance.StatusOnLeave, "QL": attendance.StatusOnLeave, "TU": attendance.StatusOnLeave,
	"CO": attendance.StatusOnLeave, "TR": attendance.StatusOnLeave, "OH": attendance.StatusOnLeave,
	"ML": attendance.StatusOnLeave, "CH": attendance.StatusOnLeave, "SCL": attendance.StatusOnLeave,
	"SPL": attendance.StatusOnLeave,

	"MIS": attendance.StatusHalfDay, "HD": attendance.StatusHalfDay, "HALF": attendance.StatusHalfDay,

	"WFH": attendance.StatusWorkFromHome, "E": attendance.StatusWorkFromHome,
}

var (
	crystalCodeLabel = regexp.MustCompile(`(?i)^\s*Emp(loyee)?\.?\s*Code`)
	crystalNameLabel = regexp.MustCompile(`(?i)^\s*Emp(loyee)?\.?\s*Name`)
	gatePassAnchor   = regexp.MustCompile(`(?i)GP\s*No\.?\s*&?\s*NAME`)
	gatePassIdentity = regexp.MustCompile(`^([A-Z0-9]+)\s*,\s*(.+)$`)
	matrixAnchor     = regexp.MustCompile(`^A\d+`)
	punchReportType  = regexp.MustCompile(`(?i)^IN$`)
)

// builtinFormats returns fresh copies of the formats shipped with the service.
func builtinFormats() []Format {
	registerTable := NewStatusTable(registerStatuses)

	return []Format{
		{
			Key:    FormatCrystal,
			Layout: LayoutBlock,
			Parser: parser.NewBlockParser(parser.BlockConfig{
				Name:       FormatCrystal,
				PeriodRows: 6,
				Anchor:     crystalCodeLabel,
				AnchorCol:  -1,
				Identity:   parser.LabelIdentity(crystalCodeLabel, crystalNameLabel),
				Labels: map[parser.Field]*regexp.Regexp{
					parser.FieldStatus: regexp.MustCompile(`(?i)^Status$`),
					parser.FieldIn:     regexp.MustCompile(`(?i)^In\s*Time$`),
					parser.FieldOut:    regexp.MustCompile(`(?i)^Out\s*Time$`),
				},
				Required:        []parser.Field{parser.FieldStatus},
				ZeroTimeIsBlank: true,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      NewStatusTable(crystalStatuses, "T").WithSkipStatuses(attendance.StatusHoliday),
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftRecompute,
		},
		{
			Key:    FormatGatePass,
			Layout: LayoutBlock,
			Parser: parser.NewBlockParser(parser.BlockConfig{
				Name:      FormatGatePass,
				Anchor:    gatePassAnchor,
				AnchorCol: -1,
				Identity:  parser.SplitIdentity(gatePassIdentity),
				Offsets: map[parser.Field]int{
					parser.FieldIn:     2,
					parser.FieldOut:    5,
					parser.FieldStatus: 9,
				},
				Required:        []parser.Field{parser.FieldIn, parser.FieldOut},
				ZeroTimeIsBlank: true,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftRecompute,
		},
		{
			Key:    FormatMatrix,
			Layout: LayoutBlock,
			Parser: parser.NewBlockParser(parser.BlockConfig{
				Name:         FormatMatrix,
				DayRowOffset: 2,
				Anchor:       matrixAnchor,
				AnchorCol:    2,
				Identity:     parser.ColumnIdentity(5),
				Offsets: map[parser.Field]int{
					parser.FieldIn:  4,
					parser.FieldOut: 5,
				},
				Required:        []parser.Field{parser.FieldIn, parser.FieldOut},
				ZeroTimeIsBlank: true,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftRecompute,
		},
		{
			// Monthly punching report: one header row, then seven rows per employee
			// (IN, OUT, status, total, late, early, OT) against day columns.
			Key:    FormatPunchReport,
			Layout: LayoutBlock,
			Parser: parser.NewBlockParser(parser.BlockConfig{
				Name:        FormatPunchReport,
				MonthHeader: regexp.MustCompile(`(?i)^For\s*Month$`),
				YearHeader:  regexp.MustCompile(`(?i)^For\s*Year$`),
				Anchor:      punchReportType,
				AnchorCol:   4,
				Identity:    parser.RowIdentity(2, 0, 1),
				Stride:      7,
				Offsets: map[parser.Field]int{
					parser.FieldIn:       0,
					parser.FieldOut:      1,
					parser.FieldStatus:   2,
					parser.FieldHours:    3,
					parser.FieldOvertime: 6,
				},
				Required:        []parser.Field{parser.FieldIn, parser.FieldOut},
				ZeroTimeIsBlank: true,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable.WithSkipStatuses(attendance.StatusHoliday),
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftRecompute,
		},
		{
			Key:    FormatPunchLog,
			Layout: LayoutColumnar,
			Parser: parser.NewColumnarParser(parser.ColumnarConfig{
				Name:       FormatPunchLog,
				Columns:    []locator.Column{colCode, colName, optional(colDate), colTime, colDir},
				MinMatches: 3,
				Directions: map[string]attendance.Direction{
					"Terminal 1": attendance.DirectionIn,
					"Terminal 2": attendance.DirectionOut,
				},
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftRecompute,
		},
		{
			Key:    FormatInOut,
			Layout: LayoutColumnar,
			Parser: parser.NewColumnarParser(parser.ColumnarConfig{
				Name:            FormatInOut,
				Columns:         []locator.Column{colCode, colName, colDate, colIn, colOut, colStatus, colShift, colHours, colOvertime},
				MinMatches:      5,
				ZeroTimeIsBlank: true,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftTrustSource,
		},
		{
			Key:    FormatGateRegister,
			Layout: LayoutColumnar,
			Parser: parser.NewColumnarParser(parser.ColumnarConfig{
				Name:            FormatGateRegister,
				Columns:         []locator.Column{colCode, colName, colDate, required(colIn), colDateOut, colOut, colShift, colHours},
				MinMatches:      4,
				ZeroTimeIsBlank: true,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftTrustSource,
		},
		{
			Key:    FormatMultiPunch,
			Layout: LayoutColumnar,
			Parser: parser.NewColumnarParser(parser.ColumnarConfig{
				Name:         FormatMultiPunch,
				Columns:      []locator.Column{colCode, colName, colDate, colStatus},
				MinMatches:   2,
				PunchColumns: regexp.MustCompile(`^(in|out) ?(\d+)$`),
			}),
			Policy:        PolicyPaired,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftRecompute,
		},
		{
			Key:    FormatPDFRegister,
			Layout: LayoutColumnar,
			Parser: parser.NewColumnarParser(parser.ColumnarConfig{
				Name:       FormatPDFRegister,
				Columns:    []locator.Column{colCode, colName, colDate, colIn, colOut, colStatus, colShift, colHours},
				MinMatches: 4,
			}),
			Policy:        PolicyFirstLast,
			Statuses:      registerTable,
			StandardHours: DefaultStandardHours,
			ShiftPolicy:   ShiftTrustSource,
		},
	}
}
