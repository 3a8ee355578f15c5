package documents

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
)

// Send renders d in the format asked for by ?format= (html by default).
func Send(c *fiber.Ctx, d Document) error {
	switch c.Query("format", "html") {
	case "pdf":
		b, err := RenderPDF(d)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+d.Number+`.pdf"`)
		return c.Send(b)
	case "html":
		var buf bytes.Buffer
		if err := RenderHTML(&buf, d); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	}
	return fiber.NewError(fiber.StatusBadRequest, "format must be html or pdf")
}
