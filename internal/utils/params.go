package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetUintParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(name + " not found")
	}

	value, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + name)
	}

	return uint(value), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return GetUintParam(ctx, "project_id")
}

func GetIssueID(ctx *gin.Context) (uint, error) {
	return GetUintParam(ctx, "issue_id")
}
