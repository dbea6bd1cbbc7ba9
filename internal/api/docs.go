package api

// @title QCAT Validation API
// @version 1.0
// @description Bootstrap confidence-interval validation service for trading strategy statistics
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8082
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Auth
// @tag.description Authentication and token lifecycle operations

// @tag.name Validation
// @tag.description Bootstrap confidence-interval validation run operations
