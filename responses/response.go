package responses

import "github.com/gofiber/fiber/v2"

// ApiResponse is the single envelope every endpoint returns. Kind carries
// a machine-readable error kind so clients can branch without parsing the
// message text.
type ApiResponse struct {
	Status  int        `json:"status"`
	Message string     `json:"message"`
	Kind    string     `json:"kind,omitempty"`
	Result  *fiber.Map `json:"result"`
}

func OK(c *fiber.Ctx, status int, message string, result *fiber.Map) error {
	return c.Status(status).JSON(ApiResponse{
		Status:  status,
		Message: message,
		Result:  result,
	})
}

func Error(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(ApiResponse{
		Status:  status,
		Message: message,
		Kind:    kind,
	})
}
