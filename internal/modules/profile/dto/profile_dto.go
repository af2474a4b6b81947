package dto

import "io"

// ProfileInput is the body of both create and update requests.
type ProfileInput struct {
	NetID         string   `json:"netid" validate:"required,netid"`
	Email         string   `json:"email" validate:"required,email,institution_email"`
	FullName      string   `json:"full_name" validate:"required,min=2,max=100,single_line"`
	Major         *string  `json:"major" validate:"omitempty,max=100,single_line"`
	GradYear      *int     `json:"grad_year" validate:"omitempty,min=2020,max=2035"`
	GPA           *float64 `json:"gpa" validate:"omitempty,min=0,max=4.3"`
	ResumeURL     *string  `json:"resume_url" validate:"omitempty,url"`
	ClassStanding string   `json:"class_standing" validate:"required,class_standing"`
}

// ResumeFile is an uploaded resume as received from the client.
type ResumeFile struct {
	Reader io.Reader
	Size   int64
}
