package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将网格快照输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := MarshalDebug(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MarshalDebug 返回缩进后的 JSON。
func MarshalDebug(res *Result) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}
