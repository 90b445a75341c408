package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestDecodeRollNumber(t *testing.T) {
	tests := []struct {
		name       string
		roll       string
		ref        time.Time
		wantOK     bool
		wantYear   string
		wantBranch string
		wantDiv    string
		wantAdmit  int
	}{
		{name: "first year before july", roll: "23102A1234", ref: date(2024, time.March, 1), wantOK: true, wantYear: "1", wantBranch: "CMPN", wantDiv: "A", wantAdmit: 2023},
		{name: "second year after july", roll: "23101B0007", ref: date(2024, time.August, 1), wantOK: true, wantYear: "2", wantBranch: "IT", wantDiv: "B", wantAdmit: 2023},
		{name: "year changes on july first", roll: "23104C0001", ref: date(2024, time.July, 1), wantOK: true, wantYear: "2", wantBranch: "EXTC", wantDiv: "C", wantAdmit: 2023},
		{name: "last day of june", roll: "23108A0001", ref: date(2024, time.June, 30), wantOK: true, wantYear: "1", wantBranch: "EXCS", wantDiv: "A", wantAdmit: 2023},
		{name: "fourth year", roll: "20101A0001", ref: date(2024, time.March, 1), wantOK: true, wantYear: "4", wantBranch: "IT", wantDiv: "A", wantAdmit: 2020},
		{name: "unknown branch", roll: "23999A1234", ref: date(2024, time.March, 1), wantOK: true, wantYear: "1", wantBranch: UnknownBranch, wantDiv: "A", wantAdmit: 2023},
		{name: "division is case sensitive", roll: "23101a0001", ref: date(2024, time.March, 1), wantOK: true, wantYear: "1", wantBranch: "IT", wantDiv: "a", wantAdmit: 2023},
		{name: "graduated", roll: "19104B1234", ref: date(2024, time.August, 1), wantOK: false},
		{name: "too short", roll: "XYZ", ref: date(2024, time.March, 1), wantOK: false},
		{name: "too long", roll: "23102A12345", ref: date(2024, time.March, 1), wantOK: false},
		{name: "empty", roll: "", ref: date(2024, time.March, 1), wantOK: false},
		{name: "non numeric year", roll: "AB102A1234", ref: date(2024, time.March, 1), wantOK: false},
		{name: "signed year", roll: "+1102A1234", ref: date(2024, time.March, 1), wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := DecodeRollNumber(tt.roll, tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantAdmit, info.AdmissionYear)
			assert.Equal(t, tt.wantYear, info.Class.AcademicYear)
			assert.Equal(t, tt.wantBranch, info.Class.Branch)
			assert.Equal(t, tt.wantDiv, info.Class.Division)
			assert.Empty(t, info.Class.Subject)
		})
	}
}

func TestDecodeRollNumber_IsPure(t *testing.T) {
	ref := date(2024, time.September, 15)

	first, ok1 := DecodeRollNumber("22101A0001", ref)
	second, ok2 := DecodeRollNumber("22101A0001", ref)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)

	// Тот же номер через год даёт следующий курс
	later, ok := DecodeRollNumber("22101A0001", ref.AddDate(1, 0, 0))
	assert.True(t, ok)
	assert.Equal(t, "3", first.Class.AcademicYear)
	assert.Equal(t, "4", later.Class.AcademicYear)
}
