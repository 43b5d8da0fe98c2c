package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"harvestlink/db"
	"harvestlink/globals"
	"harvestlink/middleware"
	"harvestlink/models"
	"harvestlink/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`

	// Farmer fields
	FarmName string `json:"farmName"`
	Bio      string `json:"bio"`

	// Buyer fields
	BusinessName string `json:"businessName"`
	BusinessType string `json:"businessType"`

	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the identity record plus the role-specific profile
// (farmer or buyer) and returns a signed token.
func Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 || req.FullName == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Email, name and a password of at least 8 characters are required"})
		return
	}
	if req.Role != globals.RoleFarmer && req.Role != globals.RoleBuyer {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Role must be farmer or buyer"})
		return
	}
	if req.Role == globals.RoleFarmer && req.FarmName == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Farm name is required"})
		return
	}
	if req.Role == globals.RoleBuyer && req.BusinessName == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Business name is required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to register"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		FullName:     req.FullName,
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"success": false, "message": "Email already registered"})
			return
		}
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to register"})
		return
	}

	location := models.GeoPoint{Address: req.Address, Lat: req.Lat, Lng: req.Lng}
	if err := createRoleProfile(ctx, user.ID, req, location, now); err != nil {
		// Keep identity and profile consistent: roll the user back.
		_, _ = db.UserCollection.DeleteOne(ctx, bson.M{"_id": user.ID})
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to register"})
		return
	}

	token, err := middleware.IssueToken(user.ID.Hex(), user.Role, tokenTTL)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to issue token"})
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "token": token, "user": user})
}

func createRoleProfile(ctx context.Context, userID primitive.ObjectID, req registerRequest, location models.GeoPoint, now time.Time) error {
	if req.Role == globals.RoleFarmer {
		farmer := models.Farmer{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			FarmName:  req.FarmName,
			Bio:       req.Bio,
			Location:  location,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := db.FarmersCollection.InsertOne(ctx, farmer)
		return err
	}
	buyer := models.Buyer{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		BusinessName: req.BusinessName,
		BusinessType: req.BusinessType,
		Location:     location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.BuyersCollection.InsertOne(ctx, buyer)
	return err
}

func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "message": "Invalid request body"})
		return
	}

	ctx, cancel := db.Ctx()
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusUnauthorized, utils.M{"success": false, "message": "Invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.RespondWithJSON(w, http.StatusUnauthorized, utils.M{"success": false, "message": "Invalid credentials"})
		return
	}

	token, err := middleware.IssueToken(user.ID.Hex(), user.Role, tokenTTL)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to issue token"})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "token": token, "user": user})
}

// RefreshToken re-issues a token for an already authenticated caller.
func RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromContext(r.Context())
	role := utils.GetUserRoleFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := middleware.IssueToken(userID, role, tokenTTL)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "message": "Failed to issue token"})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "token": token})
}

// LogoutUser is a no-op server side; tokens simply expire. Kept so clients
// have a concrete endpoint to call.
func LogoutUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
