package redis

import "fmt"

const ns = "busgo:v1"

func KeyScheduleAvailability(scheduleID int64) string {
	return fmt.Sprintf("%s:schedule:%d:availability", ns, scheduleID)
}

func KeyScheduleGeneration(scheduleID int64) string {
	return fmt.Sprintf("%s:schedule:%d:gen", ns, scheduleID)
}

func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func KeyIdemBooking(idemKey string) string {
	return fmt.Sprintf("%s:idem:booking:%s", ns, idemKey)
}

func ChannelSchedulesChanged() string {
	return ns + ":schedules:changed"
}
