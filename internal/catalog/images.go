package catalog

import (
	"encoding/json"
	"strings"
)

// ImageRef is an image reference as the backend sends it: either a bare
// string (a full URL or a file id) or an object carrying a url and/or a
// file id. It round-trips through JSON without losing either form.
type ImageRef struct {
	// Raw holds the bare-string form.
	Raw string
	// URL and FileID hold the object form.
	URL    string
	FileID string
}

func (r ImageRef) IsZero() bool {
	return r.Raw == "" && r.URL == "" && r.FileID == ""
}

func (r *ImageRef) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*r = ImageRef{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*r = ImageRef{Raw: raw}
		return nil
	}

	var obj struct {
		URL    string `json:"url"`
		ID     string `json:"id"`
		FileID string `json:"fileId"`
		MongID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		// Unexpected shape (number, array): treat as unresolvable
		// rather than failing the whole product decode.
		*r = ImageRef{}
		return nil
	}
	id := obj.FileID
	if id == "" {
		id = obj.ID
	}
	if id == "" {
		id = obj.MongID
	}
	*r = ImageRef{URL: obj.URL, FileID: id}
	return nil
}

func (r ImageRef) MarshalJSON() ([]byte, error) {
	if r.URL == "" && r.FileID == "" {
		return json.Marshal(r.Raw)
	}
	obj := map[string]string{}
	if r.URL != "" {
		obj["url"] = r.URL
	}
	if r.FileID != "" {
		obj["fileId"] = r.FileID
	}
	return json.Marshal(obj)
}

// FileResolver turns a backend file id into a servable URL.
// *api.Client satisfies it.
type FileResolver interface {
	FileURL(fileID string) string
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "data:")
}

// ResolveImageURL resolves an image reference to a URL. Absolute URLs
// and data URIs pass through unchanged, an object url is authoritative,
// a bare or object file id goes through the file-serving endpoint, and
// empty input resolves to "".
func ResolveImageURL(files FileResolver, ref ImageRef) string {
	if ref.URL != "" {
		return ref.URL
	}
	if raw := strings.TrimSpace(ref.Raw); raw != "" {
		if isAbsoluteURL(raw) {
			return raw
		}
		return files.FileURL(raw)
	}
	if ref.FileID != "" {
		return files.FileURL(ref.FileID)
	}
	return ""
}
