package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrTemplateNotFound is returned when a template is not found
	ErrTemplateNotFound = errors.New("template not found")

	// ErrCategoryNotFound is returned when a category is missing or inactive
	ErrCategoryNotFound = errors.New("category not found")

	// ErrEmailTaken is returned when an account with the email already exists
	ErrEmailTaken = errors.New("email already registered")
)
