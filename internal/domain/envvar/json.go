// Where: internal/domain/envvar/json.go
// What: Ordered JSON encoding for raw variable lists.
// Why: Function manifests must keep declaration order instead of map order.
package envvar

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders Vars as a JSON object in list order.
func (v Vars) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Raw)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
