package genservice

import "io"

// progressReader wraps an upload body and reports the percentage of bytes
// sent. Percentages are monotonically non-decreasing integers and each value
// is reported at most once. A reader with unknown total never reports.
type progressReader struct {
	r          io.Reader
	total      int64
	sent       int64
	lastPct    int
	onProgress func(percent int)
}

func newProgressReader(r io.Reader, total int64, onProgress func(int)) io.Reader {
	if onProgress == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, lastPct: -1, onProgress: onProgress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		pct := int(p.sent * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.lastPct {
			p.lastPct = pct
			p.onProgress(pct)
		}
	}
	return n, err
}
