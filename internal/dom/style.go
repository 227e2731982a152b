package dom

import "strconv"

// Px formats v as a CSS pixel length.
func Px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// SetStyles applies property/value pairs in order, stopping at the first
// error.
func SetStyles(el Element, kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if err := el.SetStyle(kv[i], kv[i+1]); err != nil {
			return err
		}
	}
	return nil
}
