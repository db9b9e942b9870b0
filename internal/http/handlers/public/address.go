package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/varuna-next/internal/http/response"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateAddressRequest 新增收货地址请求
type CreateAddressRequest struct {
	AddressRequest
	IsDefault bool `json:"is_default"`
}

// ListAddresses 获取当前用户地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	addresses, err := h.AddressService.ListAddresses(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "address fetch failed", err)
		return
	}

	response.Success(c, addresses)
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	address, err := h.AddressService.CreateAddress(uid, *req.AddressRequest.toServiceInput(), req.IsDefault)
	if err != nil {
		if errors.Is(err, service.ErrAddressInvalid) {
			respondError(c, response.CodeBadRequest, "invalid address", nil)
			return
		}
		respondError(c, response.CodeInternal, "address creation failed", err)
		return
	}

	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	addressID, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || addressID == 0 {
		respondError(c, response.CodeBadRequest, "invalid address id", nil)
		return
	}

	if err := h.AddressService.DeleteAddress(uid, uint(addressID)); err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			respondError(c, response.CodeNotFound, "address not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "address deletion failed", err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
