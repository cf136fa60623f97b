package dto

import "time"

// LecturerDashboard is the consolidated payload for the lecturer dashboard.
// On catastrophic failure the same shape is returned fully defaulted with the
// Error/Warning fields set; the shape itself never changes.
type LecturerDashboard struct {
	Lecturer         LecturerInfo   `json:"lecturer"`
	Stats            LecturerStats  `json:"stats"`
	RecentActivities []Activity     `json:"recentActivities"`
	UpcomingSchedule []ScheduleItem `json:"upcomingSchedule"`
	QuickStats       []QuickStat    `json:"quickStats"`

	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// LecturerInfo is the profile header section.
type LecturerInfo struct {
	ID             string  `json:"id"`
	NIP            string  `json:"nip"`
	FullName       string  `json:"fullName"`
	Department     *string `json:"department,omitempty"`
	Position       *string `json:"position,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	Avatar         *string `json:"avatar,omitempty"`
}

// LecturerStats holds the counting statistics plus derived metrics.
// RatingDosen is null until a real rating pipeline exists.
type LecturerStats struct {
	TotalMahasiswa        int      `json:"totalMahasiswa"`
	BimbinganKKP          int      `json:"bimbinganKKP"`
	BimbinganTesis        int      `json:"bimbinganTesis"`
	TesisDirekomendasikan int      `json:"tesisDirekomendasikan"`
	UjianPending          int      `json:"ujianPending"`
	UjianSelesaiBulanIni  int      `json:"ujianSelesaiBulanIni"`
	KelasSemesterIni      int      `json:"kelasSemesterIni"`
	BimbinganAktif        int      `json:"bimbinganAktif"`
	RatingDosen           *float64 `json:"ratingDosen"`
}

// Activity is a single entry in the recent-activity feed.
type Activity struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	StudentName string    `json:"studentName,omitempty"`
	Date        time.Time `json:"date"`
}

// ScheduleItem is a single entry in the upcoming-schedule feed.
type ScheduleItem struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	StudentName string `json:"studentName,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
}

// QuickStat is one tile in the fixed-shape quick stats strip.
type QuickStat struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
