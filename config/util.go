package config

import (
	"bytes"
	"io"
	"time"
)

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

func parseTime(layout, value string) (time.Time, error) {
	return time.Parse(layout, value)
}
