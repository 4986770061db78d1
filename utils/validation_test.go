package utils

import "testing"

func TestIsHHMM(t *testing.T) {
	valid := []string{"00:00", "09:30", "13:05", "23:59"}
	for _, s := range valid {
		if !IsHHMM(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "12:3", "ab:cd", "120:30"}
	for _, s := range invalid {
		if IsHHMM(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
