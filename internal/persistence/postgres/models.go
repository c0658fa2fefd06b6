package postgres

import (
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
)

type clubRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	CouncilID       *int64 `gorm:"index"`
	Name            string `gorm:"not null"`
	ClubDay         string `gorm:"not null"`
	MeetingInterval string `gorm:"not null"`
	MeetingTime     string `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (clubRecord) TableName() string { return "clubs" }

type membershipRecord struct {
	UserID   int64     `gorm:"primaryKey;autoIncrement:false"`
	ClubID   int64     `gorm:"primaryKey;autoIncrement:false;index"`
	JoinDate time.Time `gorm:"type:date;not null"`

	Club clubRecord `gorm:"foreignKey:ClubID;constraint:OnDelete:CASCADE"`
}

func (membershipRecord) TableName() string { return "club_memberships" }

type meetingRecord struct {
	ID                string    `gorm:"primaryKey"`
	ClubID            int64     `gorm:"not null;uniqueIndex:idx_meetings_club_date"`
	Name              string    `gorm:"not null"`
	MeetingDate       time.Time `gorm:"type:date;not null;uniqueIndex:idx_meetings_club_date"`
	MeetingTime       string    `gorm:"not null"`
	Place             string    `gorm:"not null"`
	ArrivalTime       *string
	AgendaLink        *string
	EntryInstructions *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Club clubRecord `gorm:"foreignKey:ClubID;constraint:OnDelete:CASCADE"`
}

func (meetingRecord) TableName() string { return "meetings" }

type attendanceRecord struct {
	UserID    int64  `gorm:"primaryKey;autoIncrement:false"`
	MeetingID string `gorm:"primaryKey;index"`
	Attended  bool   `gorm:"not null"`
	Confirmed bool   `gorm:"not null"`
	CreatedAt time.Time

	Meeting meetingRecord `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`
}

func (attendanceRecord) TableName() string { return "meeting_attendance" }

func toClubRecord(club persistence.Club) clubRecord {
	return clubRecord{
		ID:              club.ID,
		CouncilID:       club.CouncilID,
		Name:            club.Name,
		ClubDay:         club.MeetingDay,
		MeetingInterval: club.Interval,
		MeetingTime:     club.MeetingTime,
		CreatedAt:       club.CreatedAt,
		UpdatedAt:       club.UpdatedAt,
	}
}

func (r clubRecord) toDomain() persistence.Club {
	return persistence.Club{
		ID:          r.ID,
		CouncilID:   r.CouncilID,
		Name:        r.Name,
		MeetingDay:  r.ClubDay,
		Interval:    r.MeetingInterval,
		MeetingTime: r.MeetingTime,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toMeetingRecord(meeting persistence.Meeting) meetingRecord {
	return meetingRecord{
		ID:                meeting.ID,
		ClubID:            meeting.ClubID,
		Name:              meeting.Name,
		MeetingDate:       persistence.CalendarDate(meeting.Date),
		MeetingTime:       meeting.Time,
		Place:             meeting.Place,
		ArrivalTime:       meeting.ArrivalTime,
		AgendaLink:        meeting.AgendaLink,
		EntryInstructions: meeting.EntryInstructions,
		CreatedAt:         meeting.CreatedAt,
		UpdatedAt:         meeting.UpdatedAt,
	}
}

func (r meetingRecord) toDomain() persistence.Meeting {
	return persistence.Meeting{
		ID:                r.ID,
		ClubID:            r.ClubID,
		Name:              r.Name,
		Date:              persistence.CalendarDate(r.MeetingDate),
		Time:              r.MeetingTime,
		Place:             r.Place,
		ArrivalTime:       r.ArrivalTime,
		AgendaLink:        r.AgendaLink,
		EntryInstructions: r.EntryInstructions,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

func (r attendanceRecord) toDomain() persistence.Attendance {
	return persistence.Attendance{
		UserID:    r.UserID,
		MeetingID: r.MeetingID,
		Attended:  r.Attended,
		Confirmed: r.Confirmed,
		CreatedAt: r.CreatedAt.UTC(),
	}
}
