package format

import (
	"fmt"
	"strconv"
	"time"
)

// INR formats whole rupees with Indian digit grouping and the rupee sign.
// Example: INR(123456) => "₹1,23,456"
func INR(rupees int64) string {
	neg := rupees < 0
	if neg {
		rupees = -rupees
	}
	s := strconv.FormatInt(rupees, 10)
	// last three digits, then groups of two
	if len(s) > 3 {
		head := s[:len(s)-3]
		tail := s[len(s)-3:]
		grouped := ""
		for len(head) > 2 {
			grouped = "," + head[len(head)-2:] + grouped
			head = head[:len(head)-2]
		}
		s = head + grouped + "," + tail
	}
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}

// Percent renders a discount badge label.
func Percent(p int) string {
	return fmt.Sprintf("%d%% OFF", p)
}

// Date formats a timestamp for order history and delivery estimates.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// DateTime formats a timestamp with the time of day.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
