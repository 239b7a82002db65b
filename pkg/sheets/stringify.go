package sheets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/communitydesk/communitydesk/pkg/stores"
)

// blankSentinels are the textual spellings of a missing value that must
// never reach the sheet.
var blankSentinels = map[string]bool{
	"NaT":  true,
	"NaN":  true,
	"nan":  true,
	"None": true,
	"<NA>": true,
}

// Stringify renders a cell value for the sheet. Missing values of any
// spelling become "".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if blankSentinels[strings.TrimSpace(val)] {
			return ""
		}
		return val
	case []byte:
		return Stringify(string(val))
	case time.Time:
		if val.IsZero() {
			return ""
		}
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(stores.DateLayout)
		}
		return val.Format(stores.TimestampLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return Stringify(*val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return Stringify(float64(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case *string:
		if val == nil {
			return ""
		}
		return Stringify(*val)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case fmt.Stringer:
		return Stringify(val.String())
	default:
		return Stringify(fmt.Sprint(val))
	}
}

// isBlankRow reports whether every cell of row renders as blank.
func isBlankRow(row []any) bool {
	for _, cell := range row {
		if strings.TrimSpace(Stringify(cell)) != "" {
			return false
		}
	}
	return true
}
