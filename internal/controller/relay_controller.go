package controller

import (
	"errors"
	"fmt"
	"io"

	"care-relay-be/internal/constant"
	"care-relay-be/internal/dto"
	"care-relay-be/internal/mapper"
	"care-relay-be/internal/pkg/serverutils"
	"care-relay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRelayController interface {
	RegisterRoutes(r fiber.Router)
	UploadNote(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	GetConversation(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type relayController struct {
	relayService service.IRelayService
	mapper       *mapper.ConversationMapper
}

func NewRelayController(relayService service.IRelayService) IRelayController {
	return &relayController{
		relayService: relayService,
		mapper:       mapper.NewConversationMapper(),
	}
}

func (c *relayController) RegisterRoutes(r fiber.Router) {
	r.Post("upload-note", c.UploadNote)
	r.Post("chat", c.Chat)
	r.Get("patients/:id/conversation", c.GetConversation)
	r.Get("health", c.Health)
}

func (c *relayController) UploadNote(ctx *fiber.Ctx) error {
	var req dto.UploadNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read uploaded file: %w", err)
	}

	res, err := c.relayService.UploadDocument(ctx.UserContext(), req.PatientID, string(content))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDocument) || errors.Is(err, service.ErrMissingPatient) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(
		fmt.Sprintf(constant.DocumentUploadedMsgFmt, res.PatientID),
		dto.UploadNoteResponse{
			PatientID:         res.PatientID,
			Bytes:             res.Bytes,
			DeliveredToExpert: res.DeliveredToExpert,
		},
	))
}

func (c *relayController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	reply, err := c.relayService.Chat(ctx.UserContext(), req.PatientID, req.Message)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingPatient):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAgentRouted):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAgentTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, fmt.Sprintf(constant.NoticeAgentErrorFmt, err.Error()))
	default:
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf(constant.NoticeAgentErrorFmt, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", dto.ChatResponse{
		PatientID: req.PatientID,
		Response:  reply,
	}))
}

func (c *relayController) GetConversation(ctx *fiber.Ctx) error {
	patientID := ctx.Params("id")

	conv, ok := c.relayService.Conversation(patientID)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "No conversation for "+patientID))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation", c.mapper.ToResponse(conv)))
}

func (c *relayController) Health(ctx *fiber.Ctx) error {
	stats := c.relayService.Stats()
	return ctx.JSON(serverutils.SuccessResponse("ok", dto.HealthResponse{
		Status:      "ok",
		Patients:    stats.Patients,
		Experts:     stats.Experts,
		Pairs:       stats.Pairs,
		AgentRouted: stats.AgentRouted,
	}))
}
