package caldav

import (
	"io"
	"net/http"

	"github.com/calendarserver/caldav-mcp/internal/davxml"
)

func readBody(req *http.Request, limit int64) ([]byte, error) {
	defer req.Body.Close()
	return io.ReadAll(io.LimitReader(req.Body, limit))
}

func parsePropfindOrAll(body []byte) *davxml.PropfindRequest {
	pr, err := davxml.ParsePropfind(body)
	if err != nil {
		return &davxml.PropfindRequest{Kind: davxml.PropfindAllProp}
	}
	return pr
}

func writeMultistatus(w http.ResponseWriter, ms *davxml.Multistatus) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, _ = w.Write(ms.Render())
}
