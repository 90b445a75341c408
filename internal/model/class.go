package model

import "fmt"

// ClassDescriptor описывает поток студентов и предмет.
// Используется и как метка расписаний/объявлений, и как ключ сопоставления со студентами.
type ClassDescriptor struct {
	AcademicYear string `json:"academicYear" binding:"required"`
	Branch       string `json:"branch" binding:"required"`
	Division     string `json:"division" binding:"required"`
	Subject      string `json:"subject"`
}

// SameCohort сравнивает только поля потока (год, направление, группа), предмет не учитывается.
// Сравнение регистрозависимое.
func (c ClassDescriptor) SameCohort(other ClassDescriptor) bool {
	return c.AcademicYear == other.AcademicYear &&
		c.Branch == other.Branch &&
		c.Division == other.Division
}

// Cohort возвращает поток в виде "2 IT A" для логов
func (c ClassDescriptor) Cohort() string {
	return fmt.Sprintf("%s %s %s", c.AcademicYear, c.Branch, c.Division)
}
