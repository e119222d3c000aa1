package dto

import "time"

type UploadNoteRequest struct {
	PatientID string `form:"patient_id" validate:"required,max=128"`
}

type UploadNoteResponse struct {
	PatientID         string `json:"patient_id"`
	Bytes             int    `json:"bytes"`
	DeliveredToExpert bool   `json:"delivered_to_expert"`
}

type TurnResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationResponse struct {
	PatientID string         `json:"patient_id"`
	Document  string         `json:"document"`
	History   []TurnResponse `json:"history"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Patients    int    `json:"patients"`
	Experts     int    `json:"experts"`
	Pairs       int    `json:"pairs"`
	AgentRouted int    `json:"agent_routed"`
}

type ChatRequest struct {
	PatientID string `json:"patient_id" validate:"required,max=128"`
	Message   string `json:"message" validate:"required"`
}

type ChatResponse struct {
	PatientID string `json:"patient_id"`
	Response  string `json:"response"`
}
