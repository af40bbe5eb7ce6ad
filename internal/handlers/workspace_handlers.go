package handlers

import (
	"net/http"

	"github.com/01moynul/projectforge-golang/internal/resources"
	"github.com/gin-gonic/gin"
)

// --- Employees ---

type CreateEmployeeInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	JobTitle string `json:"jobTitle"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handlers) CreateEmployee(c *gin.Context) {
	var input CreateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.Resources.CreateEmployee(c.Request.Context(), currentAdmin(c), resources.EmployeeInput{
		FullName: input.FullName,
		Email:    input.Email,
		JobTitle: input.JobTitle,
		Password: input.Password,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Employee created", "employee": e})
}

func (h *Handlers) GetMyEmployees(c *gin.Context) {
	list, err := h.Resources.ListEmployees(c.Request.Context(), currentAdmin(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": list})
}

// --- Projects ---

type CreateProjectInput struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

func (h *Handlers) CreateProject(c *gin.Context) {
	var input CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.Resources.CreateProject(c.Request.Context(), currentAdmin(c), input.Name, input.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Project created", "project": p})
}

func (h *Handlers) GetMyProjects(c *gin.Context) {
	list, err := h.Resources.ListProjects(c.Request.Context(), currentAdmin(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

// --- Tasks ---

type CreateTaskInput struct {
	Title      string  `json:"title" binding:"required,max=255"`
	AssigneeID *string `json:"assigneeId"`
}

func (h *Handlers) CreateTask(c *gin.Context) {
	var input CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.Resources.CreateTask(c.Request.Context(), currentAdmin(c), c.Param("id"), input.Title, input.AssigneeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Task created", "task": t})
}

func (h *Handlers) GetProjectTasks(c *gin.Context) {
	list, err := h.Resources.ListTasks(c.Request.Context(), currentAdmin(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

// --- Documents ---

type CreateDocumentInput struct {
	ProjectID *string `json:"projectId"`
	Title     string  `json:"title" binding:"required,max=255"`
	Content   string  `json:"content"`
}

func (h *Handlers) CreateDocument(c *gin.Context) {
	var input CreateDocumentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.Resources.CreateDocument(c.Request.Context(), currentAdmin(c), input.ProjectID, input.Title, input.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Document created", "document": d})
}

func (h *Handlers) GetMyDocuments(c *gin.Context) {
	list, err := h.Resources.ListDocuments(c.Request.Context(), currentAdmin(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": list})
}
