package usage

import "time"

// period is the rolling allowance window.
const period = 30 * 24 * time.Hour

func defaultUsage() Usage {
	return Usage{
		Plan:     "free",
		Limit:    20,
		Used:     0,
		ResetsAt: time.Now().UTC().Add(period),
	}
}
