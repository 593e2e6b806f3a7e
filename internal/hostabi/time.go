package hostabi

import "time"

func msToDuration(ms int32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
