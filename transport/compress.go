package transport

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v3"

	"github.com/dtile-project/dtile/internal/cmn/config"
)

// maybeCompress lz4-compresses payload when it is at least as large as
// the configured threshold, grounded on bundle.Extra.Compression /
// config.TCB.Compression in the teacher's tcb.go (newDM sets Compression
// from cmn.Config on the data mover).
func maybeCompress(payload []byte) (data []byte, compressed bool, err error) {
	threshold := config.Global().Transport.CompressAboveBytes
	if threshold <= 0 || len(payload) < threshold {
		return payload, false, nil
	}
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, false, err
	}
	if err := w.Close(); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}
