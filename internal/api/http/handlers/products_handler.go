package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/selfservice/internal/api/dto"
	"github.com/spec-kit/selfservice/internal/repository"
	"github.com/spec-kit/selfservice/internal/service"
	apperrors "github.com/spec-kit/selfservice/pkg/util"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductsHandler exposes catalog endpoints.
type ProductsHandler struct {
	products *service.ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(productService *service.ProductService) *ProductsHandler {
	return &ProductsHandler{products: productService}
}

// List handles GET /products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return err
	}

	responses := make([]dto.ProductResponse, len(products))
	for i := range products {
		responses[i] = dto.NewProductResponse(&products[i])
	}
	return c.JSON(fiber.Map{"data": responses})
}

// ListPaged handles GET /products/paged with filters, sorting and pagination.
func (h *ProductsHandler) ListPaged(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "0"))
	if err != nil || page < 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid page")
	}
	size, err := strconv.Atoi(c.Query("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size <= 0 || size > maxPageSize {
		return fiber.NewError(http.StatusBadRequest, "invalid size")
	}

	filter := repository.ProductFilter{
		SortBy:   c.Query("sort", "name"),
		SortDesc: strings.EqualFold(c.Query("direction", "ASC"), "DESC"),
		Limit:    size,
		Offset:   page * size,
	}
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}
	if description := c.Query("description"); description != "" {
		filter.Description = &description
	}
	if raw := c.Query("minPrice"); raw != "" {
		minPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid minPrice")
		}
		filter.MinPrice = &minPrice
	}
	if raw := c.Query("maxPrice"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid maxPrice")
		}
		filter.MaxPrice = &maxPrice
	}

	products, total, err := h.products.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPageResponse(products, page, size, total)})
}

// Get handles GET /products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	product, err := h.products.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapProductError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Create handles POST /products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	product, err := h.products.Create(c.UserContext(), req.Name, req.Description, req.Price)
	if err != nil {
		return mapProductError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Update handles PUT /products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	product, err := h.products.Update(c.UserContext(), c.Params("id"), req.Name, req.Description, req.Price)
	if err != nil {
		return mapProductError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewProductResponse(product)})
}

// Delete handles DELETE /products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	if err := h.products.Delete(c.UserContext(), c.Params("id")); err != nil {
		return mapProductError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func mapProductError(err error) error {
	if errors.Is(err, service.ErrProductNotFound) {
		return apperrors.NewNotFound("product", nil)
	}
	return err
}
