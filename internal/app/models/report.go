package models

import "time"

// SystemStatistics is the administrator dashboard summary
type SystemStatistics struct {
	TotalEvents        int64   `json:"totalEvents"`
	ApprovedEvents     int64   `json:"approvedEvents"`
	PendingEvents      int64   `json:"pendingEvents"`
	UpcomingEvents     int64   `json:"upcomingEvents"`
	PastEvents         int64   `json:"pastEvents"`
	TotalUsers         int64   `json:"totalUsers"`
	TotalRegistrations int64   `json:"totalRegistrations"`
	TotalAttendance    int64   `json:"totalAttendance"`
	AttendanceRate     float64 `json:"attendanceRate"`
	TotalCertificates  int64   `json:"totalCertificates"`
	TotalFeedback      int64   `json:"totalFeedback"`
	AverageRating      float64 `json:"averageRating"`
}

// EventReport summarises one event
type EventReport struct {
	Event                  *Event  `json:"event"`
	TotalRegistrations     int     `json:"totalRegistrations"`
	ConfirmedRegistrations int     `json:"confirmedRegistrations"`
	WaitlistRegistrations  int     `json:"waitlistRegistrations"`
	PresentAttendance      int     `json:"presentAttendance"`
	AttendanceRate         float64 `json:"attendanceRate"`
	FeedbackCount          int     `json:"feedbackCount"`
	AverageRating          float64 `json:"averageRating"`
	CertificatesIssued     int     `json:"certificatesIssued"`
	VolunteerHours         int     `json:"volunteerHours"`
}

// UserReportRow is one line of the user participation report
type UserReportRow struct {
	UserID              int64     `json:"userId"`
	FullName            string    `json:"fullName"`
	Email               string    `json:"email"`
	TotalRegistrations  int       `json:"totalRegistrations"`
	TotalAttendance     int       `json:"totalAttendance"`
	TotalCertificates   int       `json:"totalCertificates"`
	TotalVolunteerHours int       `json:"totalVolunteerHours"`
	JoinDate            time.Time `json:"joinDate"`
}

// EventReportRow is one line of the event participation report
type EventReportRow struct {
	EventID            int64     `json:"eventId"`
	Title              string    `json:"title"`
	EventDate          time.Time `json:"eventDate"`
	TotalRegistrations int       `json:"totalRegistrations"`
	TotalAttendance    int       `json:"totalAttendance"`
	AttendanceRate     float64   `json:"attendanceRate"`
	AverageRating      float64   `json:"averageRating"`
	FeedbackCount      int       `json:"feedbackCount"`
}
