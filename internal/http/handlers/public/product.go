package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/varuna-next/internal/cache"
	"github.com/varuna-next/internal/http/response"
	"github.com/varuna-next/internal/models"
	"github.com/varuna-next/internal/repository"
	"github.com/varuna-next/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	productDetailCachePrefix = "product:slug:"
	productDetailCacheTTL    = 60 * time.Second
)

// ListProducts 获取上架商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// GetProductBySlug 按 slug 获取商品详情
func (h *Handler) GetProductBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "invalid product slug", nil)
		return
	}

	cacheKey := productDetailCachePrefix + slug
	var cached models.Product
	if hit, err := cache.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	product, err := h.ProductService.GetProductBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	_ = cache.SetJSON(c.Request.Context(), cacheKey, product, productDetailCacheTTL)
	response.Success(c, product)
}
