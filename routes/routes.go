package routes

import (
	"net/http"
	_ "net/http/pprof"

	"harvestlink/auth"
	"harvestlink/favorites"
	"harvestlink/home"
	"harvestlink/listings"
	"harvestlink/messages"
	"harvestlink/middleware"
	"harvestlink/notify"
	"harvestlink/orders"
	"harvestlink/pools"
	"harvestlink/profile"
	"harvestlink/ratelim"
	"harvestlink/ratings"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/uploads/listings/*filepath", http.Dir("static/uploads/listings"))
	router.ServeFiles("/static/uploads/avatars/*filepath", http.Dir("static/uploads/avatars"))
}

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/v1/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/v1/auth/logout", middleware.Authenticate(auth.LogoutUser))
	router.POST("/api/v1/auth/token/refresh", ratelim.RateLimit(middleware.Authenticate(auth.RefreshToken)))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/v1/profile", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/v1/profile", middleware.Authenticate(profile.EditProfile))
	router.PUT("/api/v1/profile/avatar", middleware.Authenticate(profile.EditProfilePic))

	router.GET("/api/v1/farmers/:id", middleware.OptionalAuth(profile.GetFarmerProfile))
}

func AddListingRoutes(router *httprouter.Router) {
	// 🌾 Farmer-side CRUD
	router.POST("/api/v1/listings", middleware.Authenticate(listings.CreateListing))
	router.PUT("/api/v1/listings/:id", middleware.Authenticate(listings.EditListing))
	router.DELETE("/api/v1/listings/:id", middleware.Authenticate(listings.DeleteListing))
	router.PUT("/api/v1/listings/:id/stock", middleware.Authenticate(listings.ToggleStock))
	router.GET("/api/v1/dash/listings", middleware.Authenticate(listings.GetMyListings))

	// 🛒 Buyer-side browsing
	router.GET("/api/v1/listings", middleware.OptionalAuth(listings.GetFilteredListings))
	router.GET("/api/v1/listings/:id", middleware.OptionalAuth(listings.GetListing))
	router.GET("/api/v1/catalogue", listings.GetCatalogue)
}

func AddOrderRoutes(router *httprouter.Router) {
	router.POST("/api/v1/orders", middleware.Authenticate(orders.PlaceOrder))
	router.GET("/api/v1/orders/mine", middleware.Authenticate(orders.GetMyOrders))
	router.GET("/api/v1/orders/incoming", middleware.Authenticate(orders.GetIncomingOrders))
	router.GET("/api/v1/orders/order/:id", middleware.Authenticate(orders.GetOrder))

	// 📦 Farmer transitions
	router.POST("/api/v1/orders/order/:id/approve", middleware.Authenticate(orders.ApproveOrder))
	router.POST("/api/v1/orders/order/:id/reject", middleware.Authenticate(orders.RejectOrder))
	router.POST("/api/v1/orders/order/:id/deliver", middleware.Authenticate(orders.DeliverOrder))
	router.POST("/api/v1/orders/order/:id/cancel", middleware.Authenticate(orders.CancelOrder))

	// 💬 Order thread
	router.GET("/api/v1/orders/order/:id/messages", middleware.Authenticate(messages.GetMessages))
	router.POST("/api/v1/orders/order/:id/messages", middleware.Authenticate(messages.SendMessage))

	// 🔔 Push feed for status changes
	router.GET("/ws/orders", middleware.Authenticate(notify.HandleWebSocket))
}

func AddRatingRoutes(router *httprouter.Router) {
	router.POST("/api/v1/ratings", ratelim.RateLimit(middleware.Authenticate(ratings.AddRating)))
	router.GET("/api/v1/ratings/farmer/:id", middleware.OptionalAuth(ratings.GetFarmerRatings))
	router.GET("/api/v1/ratings/order/:id", middleware.Authenticate(ratings.GetOrderRating))
}

func AddFavoriteRoutes(router *httprouter.Router) {
	router.PUT("/api/v1/favorites/listing/:id", middleware.Authenticate(favorites.ToggleListingFavorite))
	router.PUT("/api/v1/favorites/farmer/:id", middleware.Authenticate(favorites.ToggleFarmerFavorite))
	router.GET("/api/v1/favorites", middleware.Authenticate(favorites.GetFavorites))
	router.GET("/api/v1/favorites/listing/:id/status", middleware.Authenticate(favorites.IsFavorited))
}

func AddPoolRoutes(router *httprouter.Router) {
	router.POST("/api/v1/pools", middleware.Authenticate(pools.CreatePool))
	router.GET("/api/v1/pools", middleware.OptionalAuth(pools.GetPools))
	router.POST("/api/v1/pools/:id/close", middleware.Authenticate(pools.ClosePool))
	router.POST("/api/v1/pools/:id/contribute", middleware.Authenticate(pools.Contribute))
	router.POST("/api/v1/pools/:id/order", middleware.Authenticate(pools.PlacePoolOrder))
}

func AddHomeRoutes(router *httprouter.Router) {
	router.GET("/api/v1/home/:section", middleware.OptionalAuth(home.GetHomeContent))
}
