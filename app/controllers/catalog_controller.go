package controllers

import (
	"net/http"

	"github.com/eadens/cakeworld/app/cake"
	"github.com/eadens/cakeworld/app/services"
	"github.com/eadens/cakeworld/pkg/apperr"
	"github.com/eadens/cakeworld/pkg/ctx"
)

const maxImageBytes = 10 << 20

type ProductController struct {
	service *services.ProductService
}

func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{service: service}
}

// Index lists products, optionally filtered by ?category=.
func (pc *ProductController) Index(c *ctx.Context) {
	products, err := pc.service.List(c.Context(), c.Query("category"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(products)
}

func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	p, err := pc.service.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.service.Create(c.Context(), c.Principal(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (pc *ProductController) Update(c *ctx.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.service.Update(c.Context(), c.Principal(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := pc.service.Delete(c.Context(), c.Principal(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]bool{"success": true})
}

// UploadImage accepts a multipart form with an "image" file field.
func (pc *ProductController) UploadImage(c *ctx.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, maxImageBytes)
	file, header, err := c.R.FormFile("image")
	if err != nil {
		c.Fail(apperr.Validation("products.UploadImage", "image upload failed", map[string]string{"image": "The image field is required."}))
		return
	}
	defer file.Close()

	p, err := pc.service.UploadImage(c.Context(), c.Principal(), id, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

type CakeController struct {
	service *services.CakeService
}

func NewCakeController(service *services.CakeService) *CakeController {
	return &CakeController{service: service}
}

// Price is the side-effect free pricing preview.
func (cc *CakeController) Price(c *ctx.Context) {
	var cfg cake.Config
	if !c.BindJSON(&cfg) {
		return
	}
	q, err := cc.service.Preview(cfg)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(q)
}

// Store persists a quote for the cart.
func (cc *CakeController) Store(c *ctx.Context) {
	var cfg cake.Config
	if !c.BindJSON(&cfg) {
		return
	}
	saved, err := cc.service.Save(c.Context(), c.Principal(), cfg)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(saved)
}

type ReviewController struct {
	service *services.ReviewService
}

func NewReviewController(service *services.ReviewService) *ReviewController {
	return &ReviewController{service: service}
}

func (rc *ReviewController) Index(c *ctx.Context) {
	reviews, err := rc.service.List(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(reviews)
}

func (rc *ReviewController) Store(c *ctx.Context) {
	var in services.ReviewInput
	if !c.BindJSON(&in) {
		return
	}
	review, err := rc.service.Create(c.Context(), c.Principal(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(review)
}
