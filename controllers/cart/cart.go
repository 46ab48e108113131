package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/templateverse/marketplace-api/cart"
	checkoutControllers "github.com/templateverse/marketplace-api/controllers/checkout"
)

type CartItemInput struct {
	ID      string `json:"id" binding:"required"`
	License string `json:"license" binding:"required,oneof=regular extended"`
}

func cartResponse(s *cart.Store) gin.H {
	return gin.H{
		"items":       s.Items(),
		"all_access":  s.AllAccess(),
		"total_items": s.TotalItems(),
		"total_price": s.TotalPrice(),
	}
}

// GET /user/cart
func GetUserCart(repo cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		store, err := repo.Load(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(store))
	}
}

// POST /user/cart
func UpdateCartItem(repo cart.Repository, catalog checkoutControllers.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input CartItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		// Price the line from the catalog of record, the same derivation
		// the checkout brokers apply.
		license := cart.License(input.License)
		tpl, price, err := checkoutControllers.TemplatePrice(c.Request.Context(), catalog, input.ID, license)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up template"})
			return
		}
		if tpl == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}

		store, err := repo.Load(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}

		store.AddToCart(cart.Item{
			ID:      tpl.ID,
			Title:   tpl.Title,
			Image:   tpl.ImageURL,
			Price:   price,
			License: license,
		})

		if err := repo.Save(c.Request.Context(), userID, store); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(store))
	}
}

// PATCH /user/cart/:template_id/license
func UpdateCartLicense(repo cart.Repository, catalog checkoutControllers.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		templateID := c.Param("template_id")

		var input struct {
			License string `json:"license" binding:"required,oneof=regular extended"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		store, err := repo.Load(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}
		if !store.IsInCart(templateID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}

		license := cart.License(input.License)
		tpl, price, err := checkoutControllers.TemplatePrice(c.Request.Context(), catalog, templateID, license)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up template"})
			return
		}
		if tpl == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}

		store.UpdateLicense(templateID, license, price)
		if err := repo.Save(c.Request.Context(), userID, store); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(store))
	}
}

// POST /user/cart/all-access
func SetAllAccess(repo cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input struct {
			Active *bool `json:"active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		store, err := repo.Load(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}

		store.SetAllAccess(*input.Active)
		if err := repo.Save(c.Request.Context(), userID, store); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(store))
	}
}

// DELETE /user/cart/:template_id
func DeleteCartItem(repo cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		templateID := c.Param("template_id")

		store, err := repo.Load(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
			return
		}
		if !store.IsInCart(templateID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}

		store.RemoveFromCart(templateID)
		if err := repo.Save(c.Request.Context(), userID, store); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cart"})
			return
		}
		c.JSON(http.StatusOK, cartResponse(store))
	}
}

// DELETE /user/cart
func ClearUserCart(repo cart.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		if err := repo.Clear(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}
