package service

import (
	"strconv"
	"time"

	"github.com/dtapp/campus_core/internal/model"
)

const (
	rollNumberLength = 10
	maxAcademicYear  = 4

	// Учебный год меняется в июле, а не в январе
	academicYearStartMonth = time.July

	UnknownBranch = "UNKNOWN"
)

// BranchCodes коды направлений в номере зачётки
var BranchCodes = map[string]string{
	"101": "IT",
	"102": "CMPN",
	"104": "EXTC",
	"108": "EXCS",
}

// RollNumberInfo результат разбора номера зачётки
type RollNumberInfo struct {
	AdmissionYear int
	Class         model.ClassDescriptor // Subject всегда пустой
}

// DecodeRollNumber разбирает номер зачётки относительно даты ref.
// Возвращает false для неверного формата и для выпускников (курс больше 4).
// Функция чистая: результат зависит только от аргументов, поэтому курс пересчитывается
// при каждом вызове и корректно переходит через границу учебного года.
func DecodeRollNumber(rollNumber string, ref time.Time) (RollNumberInfo, bool) {
	if len(rollNumber) != rollNumberLength {
		return RollNumberInfo{}, false
	}

	if !isDigit(rollNumber[0]) || !isDigit(rollNumber[1]) {
		return RollNumberInfo{}, false
	}
	admissionYear := 2000 + int(rollNumber[0]-'0')*10 + int(rollNumber[1]-'0')

	branch, ok := BranchCodes[rollNumber[2:5]]
	if !ok {
		branch = UnknownBranch
	}
	division := rollNumber[5:6]

	academicYear := ref.Year() - admissionYear
	if ref.Month() < academicYearStartMonth {
		academicYear--
	}
	academicYear++

	if academicYear > maxAcademicYear {
		return RollNumberInfo{}, false
	}

	return RollNumberInfo{
		AdmissionYear: admissionYear,
		Class: model.ClassDescriptor{
			AcademicYear: strconv.Itoa(academicYear),
			Branch:       branch,
			Division:     division,
		},
	}, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
