package forward

import (
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
)

func decode(c *fiber.Ctx, dst any) error {
	if len(c.Route().Params) > 0 {
		if err := c.ParamsParser(dst); err != nil {
			return errx.Wrap(err, errx.WithType(errx.T_Validation), errx.WithCode(CodeInvalidPathParams))
		}
	}

	if len(c.Queries()) > 0 {
		if err := c.QueryParser(dst); err != nil {
			return errx.Wrap(err, errx.WithType(errx.T_Validation), errx.WithCode(CodeInvalidQueryParams))
		}
	}

	return decodeBody(c, dst)
}

func decodeBody(c *fiber.Ctx, dst any) error {
	if !hasBody(c.Method()) || len(c.Body()) == 0 {
		return nil
	}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return errx.New(
			"only application/json request bodies are supported",
			errx.WithType(errx.T_Validation),
			errx.WithCode(CodeInvalidContentType),
		)
	}

	if err := c.App().Config().JSONDecoder(c.Body(), dst); err != nil {
		return errx.Wrap(err, errx.WithType(errx.T_Validation), errx.WithCode(CodeInvalidJSONBody))
	}
	return nil
}

func hasBody(method string) bool {
	return slices.Contains([]string{fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch}, method)
}
