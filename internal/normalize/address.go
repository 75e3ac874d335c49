package normalize

import (
	"regexp"
	"strings"

	"github.com/Veraticus/tradeflow/internal/model"
)

var addressLinePattern = regexp.MustCompile(`^\s*(.+?),\s*([^,]+?),?\s+([A-Za-z]{2})\s+(\d{5}(?:-?\d{4})?)\s*$`)

// Address normalizes an address given as a field map or a single line.
// Returns false when nothing usable remains.
func Address(v any) (model.Address, bool) {
	var addr model.Address

	switch x := v.(type) {
	case model.Address:
		addr = normalizeAddress(x)
	case map[string]any:
		addr = addressFromMap(x)
	case model.RawRecord:
		addr = addressFromMap(x)
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		addr = addressFromMap(m)
	case string:
		s, ok := text(x)
		if !ok {
			return model.Address{}, false
		}
		addr = ParseAddressLine(s)
	default:
		return model.Address{}, false
	}

	return addr, !addr.IsEmpty()
}

// ParseAddressLine splits "street, city, ST 12345" into components. Lines
// that do not match keep the whole value as the street.
func ParseAddressLine(line string) model.Address {
	m := addressLinePattern.FindStringSubmatch(line)
	if m == nil {
		return model.Address{Street: titleCase(line)}
	}
	return normalizeAddress(model.Address{
		Street:  m[1],
		City:    m[2],
		State:   m[3],
		ZipCode: m[4],
	})
}

func addressFromMap(m map[string]any) model.Address {
	first := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := text(m[k]); ok {
				return s
			}
		}
		return ""
	}

	addr := model.Address{
		Street:  first("street", "street_address", "address", "line1", "address_line_1"),
		City:    first("city"),
		State:   first("state", "state_code"),
		ZipCode: first("zip_code", "zip", "zipcode", "postal_code"),
		Type:    first("type", "address_type"),
	}
	if addr.City == "" && addr.State == "" && addr.ZipCode == "" && addr.Street != "" {
		if parsed := ParseAddressLine(addr.Street); parsed.City != "" {
			parsed.Type = addr.Type
			return normalizeAddress(parsed)
		}
	}
	return normalizeAddress(addr)
}

func normalizeAddress(a model.Address) model.Address {
	return model.Address{
		Street:  titleCase(a.Street),
		City:    Name(a.City),
		State:   State(a.State),
		ZipCode: ZipCode(a.ZipCode),
		Type:    strings.ToLower(strings.TrimSpace(a.Type)),
	}
}

// State returns the two-letter postal code for a state name or code.
// Unrecognized values are upper-cased.
func State(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}
	key := collapse(strings.ReplaceAll(s, ".", ""))
	if len(key) == 2 {
		return key
	}
	if code, found := stateCode(key); found {
		return code
	}
	return key
}

// ZipCode formats a five or nine digit ZIP code. Returns "" otherwise.
func ZipCode(v any) string {
	s, ok := text(v)
	if !ok {
		return ""
	}
	d := digits(s)
	switch len(d) {
	case 5:
		return d
	case 9:
		return d[:5] + "-" + d[5:]
	default:
		return ""
	}
}

func stateCode(name string) (string, bool) {
	switch name {
	case "ALABAMA":
		return "AL", true
	case "ALASKA":
		return "AK", true
	case "ARIZONA":
		return "AZ", true
	case "ARKANSAS":
		return "AR", true
	case "CALIFORNIA":
		return "CA", true
	case "COLORADO":
		return "CO", true
	case "CONNECTICUT":
		return "CT", true
	case "DELAWARE":
		return "DE", true
	case "DISTRICT OF COLUMBIA":
		return "DC", true
	case "FLORIDA":
		return "FL", true
	case "GEORGIA":
		return "GA", true
	case "HAWAII":
		return "HI", true
	case "IDAHO":
		return "ID", true
	case "ILLINOIS":
		return "IL", true
	case "INDIANA":
		return "IN", true
	case "IOWA":
		return "IA", true
	case "KANSAS":
		return "KS", true
	case "KENTUCKY":
		return "KY", true
	case "LOUISIANA":
		return "LA", true
	case "MAINE":
		return "ME", true
	case "MARYLAND":
		return "MD", true
	case "MASSACHUSETTS":
		return "MA", true
	case "MICHIGAN":
		return "MI", true
	case "MINNESOTA":
		return "MN", true
	case "MISSISSIPPI":
		return "MS", true
	case "MISSOURI":
		return "MO", true
	case "MONTANA":
		return "MT", true
	case "NEBRASKA":
		return "NE", true
	case "NEVADA":
		return "NV", true
	case "NEW HAMPSHIRE":
		return "NH", true
	case "NEW JERSEY":
		return "NJ", true
	case "NEW MEXICO":
		return "NM", true
	case "NEW YORK":
		return "NY", true
	case "NORTH CAROLINA":
		return "NC", true
	case "NORTH DAKOTA":
		return "ND", true
	case "OHIO":
		return "OH", true
	case "OKLAHOMA":
		return "OK", true
	case "OREGON":
		return "OR", true
	case "PENNSYLVANIA":
		return "PA", true
	case "PUERTO RICO":
		return "PR", true
	case "RHODE ISLAND":
		return "RI", true
	case "SOUTH CAROLINA":
		return "SC", true
	case "SOUTH DAKOTA":
		return "SD", true
	case "TENNESSEE":
		return "TN", true
	case "TEXAS":
		return "TX", true
	case "UTAH":
		return "UT", true
	case "VERMONT":
		return "VT", true
	case "VIRGINIA":
		return "VA", true
	case "WASHINGTON":
		return "WA", true
	case "WEST VIRGINIA":
		return "WV", true
	case "WISCONSIN":
		return "WI", true
	case "WYOMING":
		return "WY", true
	default:
		return "", false
	}
}
