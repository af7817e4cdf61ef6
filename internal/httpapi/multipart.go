package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"cardvault/internal/library"
	"cardvault/internal/services"
)

const (
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
	maxBatchFiles     = 50
)

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.Wrap(services.ErrTooLarge, "api", "upload",
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), nil)
		}
		return services.Wrap(services.ErrValidation, "api", "upload", "expected a multipart/form-data body", err)
	}
	return nil
}

func readUpload(fh *multipart.FileHeader) (library.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return library.Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return library.Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return library.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// batchFiles collects the files sent as files, files[], or files[N], ordered
// by N. Multipart forms arrive as a map, so the index is the only ordering
// clients can rely on.
func batchFiles(form *multipart.Form) []*multipart.FileHeader {
	type keyed struct {
		key   string
		order int
	}
	var keys []keyed
	for key := range form.File {
		if key != "files" && !strings.HasPrefix(key, "files[") {
			continue
		}
		order := -1
		if inner, ok := strings.CutPrefix(key, "files["); ok {
			if n, err := strconv.Atoi(strings.TrimSuffix(inner, "]")); err == nil {
				order = n
			}
		}
		keys = append(keys, keyed{key: key, order: order})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].order != keys[j].order {
			return keys[i].order < keys[j].order
		}
		return keys[i].key < keys[j].key
	})

	var out []*multipart.FileHeader
	for _, k := range keys {
		out = append(out, form.File[k.key]...)
	}
	return out
}

func formValue(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}
