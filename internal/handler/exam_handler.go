package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patshala/patshala-backend/internal/middleware"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/response"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/patshala/patshala-backend/internal/validator"
)

// ExamHandler handles exam listing, paper delivery and the live session
// lifecycle. All routes require a student JWT; batch enrollment is
// checked per exam so tokens cannot be used across batches.
type ExamHandler struct {
	examService    *service.ExamService
	sessionService *service.ExamSessionService
	userService    *service.UserService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	examService *service.ExamService,
	sessionService *service.ExamSessionService,
	userService *service.UserService,
) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		sessionService: sessionService,
		userService:    userService,
	}
}

// requireEnrolledExam loads the exam and verifies the caller is enrolled
// in its batch. Writes the error response itself and returns nil on
// failure.
func (h *ExamHandler) requireEnrolledExam(c *gin.Context, examID, studentID uuid.UUID) *model.Exam {
	exam, err := h.examService.GetExam(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		} else {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return nil
	}

	enrolled, err := h.userService.IsEnrolled(c.Request.Context(), studentID, exam.BatchID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return nil
	}
	if !enrolled {
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		return nil
	}

	return exam
}

// ListExams godoc
// GET /api/v1/student/batches/:batch_id/exams
// Lists published exams of a batch the student is enrolled in.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	batchID, err := uuid.Parse(c.Param("batch_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	enrolled, err := h.userService.IsEnrolled(c.Request.Context(), claims.UserID, batchID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !enrolled {
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		return
	}

	exams, err := h.examService.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetPaper godoc
// GET /api/v1/student/exams/:exam_id/paper
// Returns the exam questions with correct answers stripped.
func (h *ExamHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if exam := h.requireEnrolledExam(c, examID, claims.UserID); exam == nil {
		return
	}

	paper, err := h.examService.GetPaper(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// StartExam godoc
// POST /api/v1/student/exams/:exam_id/start
// Opens (or resumes) a session and starts the countdown.
func (h *ExamHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if exam := h.requireEnrolledExam(c, examID, claims.UserID); exam == nil {
		return
	}

	// Body is optional; an empty body starts a normal (non-practice) session.
	var req model.StartExamRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	state, err := h.sessionService.Start(c.Request.Context(), examID, claims.UserID, req.Practice)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// SelectAnswer godoc
// POST /api/v1/student/exams/:exam_id/answer
// Records one answer. In practice mode the response carries instant
// correctness and the question locks.
func (h *ExamHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	feedback, err := h.sessionService.SelectAnswer(examID, claims.UserID, req.QuestionID, *req.OptionIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
		case errors.Is(err, service.ErrSessionSubmitted):
			response.Fail(c, http.StatusConflict, response.ErrSessionSubmitted)
		case errors.Is(err, service.ErrUnknownQuestion), errors.Is(err, service.ErrInvalidOption):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"feedback": feedback})
}

// GetSessionState godoc
// GET /api/v1/student/exams/:exam_id/session
// Returns the live session view for page reloads.
func (h *ExamHandler) GetSessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.State(examID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotActive) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// SubmitExam godoc
// POST /api/v1/student/exams/:exam_id/submit
// Grades and finalizes the session. Idempotent: a second submit returns
// the already computed result.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionNotActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetLastResult godoc
// GET /api/v1/student/results/last
// Returns the caller's most recent exam result.
func (h *ExamHandler) GetLastResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.sessionService.LastResult(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoResult) {
			response.Fail(c, http.StatusNotFound, response.ErrNoResult)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListExamResults godoc
// GET /api/v1/admin/exams/:exam_id/results
// Returns every persisted result for an exam, best score first.
func (h *ExamHandler) ListExamResults(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	results, err := h.examService.ListResults(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []model.ExamResult{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetSolveSheet godoc
// GET /api/v1/student/exams/:exam_id/solve-sheet
// Returns full questions with answers and explanations for review.
func (h *ExamHandler) GetSolveSheet(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if exam := h.requireEnrolledExam(c, examID, claims.UserID); exam == nil {
		return
	}

	sheet, err := h.examService.GetSolveSheet(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"solve_sheet": sheet})
}
