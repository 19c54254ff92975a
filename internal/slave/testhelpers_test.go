package slave

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
)

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func parseHostPort(rawURI string) (string, int, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return "", 0, fmt.Errorf("bad port in %q: %w", rawURI, err)
	}
	return u.Hostname(), port, nil
}
