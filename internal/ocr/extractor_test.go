package ocr

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("CheckFormat", func() {
	It("accepts image MIME types", func() {
		Expect(CheckFormat([]byte("data"), "image/jpeg")).To(Succeed())
		Expect(CheckFormat([]byte("data"), "image/png")).To(Succeed())
		Expect(CheckFormat([]byte("data"), "image/heic")).To(Succeed())
	})

	It("accepts PDFs", func() {
		Expect(CheckFormat([]byte("data"), "application/pdf")).To(Succeed())
	})

	It("normalizes casing and whitespace", func() {
		Expect(CheckFormat([]byte("data"), "  IMAGE/JPEG ")).To(Succeed())
	})

	It("rejects text files", func() {
		err := CheckFormat([]byte("just text"), "text/plain")
		Expect(errors.Is(err, ErrUnsupportedFormat)).To(BeTrue())
	})

	It("rejects empty files", func() {
		err := CheckFormat(nil, "image/jpeg")
		Expect(errors.Is(err, ErrUnsupportedFormat)).To(BeTrue())
	})
})

var _ = Describe("Mock", func() {
	var mock *Mock

	BeforeEach(func() {
		mock = NewMock()
	})

	When("given a supported file", func() {
		It("returns a fully-populated suggestion", func() {
			result, err := mock.Extract(context.Background(), []byte("fake image data"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Description).To(Equal("Restaurant bill"))
			Expect(result.Amount.Equal(decimal.NewFromInt(1500))).To(BeTrue())
			Expect(result.Currency).To(Equal("INR"))
			Expect(result.Date).NotTo(BeEmpty())
		})

		It("returns a copy the caller may edit freely", func() {
			first, err := mock.Extract(context.Background(), []byte("fake image data"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			first.Description = "edited"

			second, err := mock.Extract(context.Background(), []byte("fake image data"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Description).To(Equal("Restaurant bill"))
		})
	})

	When("given an unsupported file", func() {
		It("fails the format gate before producing anything", func() {
			_, err := mock.Extract(context.Background(), []byte("just text"), "text/plain")
			Expect(errors.Is(err, ErrUnsupportedFormat)).To(BeTrue())
		})
	})

	When("the caller abandons the extraction", func() {
		BeforeEach(func() {
			mock.Delay = time.Minute
		})

		It("returns promptly with the context error", func() {
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				_, err := mock.Extract(ctx, []byte("fake image data"), "image/jpeg")
				done <- err
			}()

			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})

	When("configured to fail", func() {
		BeforeEach(func() {
			mock.Err = ErrExtractionFailed
		})

		It("surfaces the failure", func() {
			_, err := mock.Extract(context.Background(), []byte("fake image data"), "image/jpeg")
			Expect(errors.Is(err, ErrExtractionFailed)).To(BeTrue())
		})
	})
})
