package allgood

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want Rate
	}{
		{"5 times per day", Rate{MaxRuns: 5, Period: PeriodDay}},
		{"1 time per hour", Rate{MaxRuns: 1, Period: PeriodHour}},
		{"1 times per day", Rate{MaxRuns: 1, Period: PeriodDay}},
		{"  10 times per hour  ", Rate{MaxRuns: 10, Period: PeriodHour}},
		{"3 TIMES PER DAY", Rate{MaxRuns: 3, Period: PeriodDay}},
		{"1000 times per day", Rate{MaxRuns: 1000, Period: PeriodDay}},
	}
	for _, tc := range cases {
		got, err := ParseFrequency(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseFrequencyRejectsZero(t *testing.T) {
	_, err := ParseFrequency("0 times per day")
	require.Error(t, err)
	require.Contains(t, err.Error(), "positive")
}

func TestParseFrequencyRejectsOverCap(t *testing.T) {
	_, err := ParseFrequency("1001 times per hour")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Maximum 1000")
}

func TestParseFrequencyRejectsUnsupported(t *testing.T) {
	for _, in := range []string{
		"5 times per week",
		"sometimes",
		"per hour",
		"-1 times per day",
		"5 times per",
		"",
	} {
		_, err := ParseFrequency(in)
		require.Error(t, err, "input %q", in)
		require.Contains(t, err.Error(), "Unsupported format", "input %q", in)
	}
}
