package downloader

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/user/illust-harvester/pkg/utils"
)

// tokenSource issues strictly increasing tokens seeded from the wall clock,
// so two attempts in the same millisecond still get distinct file names.
type tokenSource struct {
	last atomic.Int64
}

var tokens tokenSource

func (s *tokenSource) next() int64 {
	for {
		last := s.last.Load()
		now := time.Now().UnixMilli()
		if now <= last {
			now = last + 1
		}
		if s.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// FileName builds the destination name of one attempt.
func FileName(key string, page, index int, token int64, ext string) string {
	return fmt.Sprintf("image_%s_p%d_%d_%d%s", utils.SafeFileComponent(key), page, index, token, ext)
}
