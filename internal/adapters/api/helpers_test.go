package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

func decodeTestBody(r *http.Request, out any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}
