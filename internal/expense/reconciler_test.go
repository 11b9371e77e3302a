package expense

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func submittedRecord(id string, amount int64, createdAt time.Time) Record {
	return Record{
		ID:        id,
		Employee:  "Sarah",
		Status:    StatusSubmitted,
		Amount:    decimal.NewFromInt(amount),
		Currency:  "INR",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

var _ = Describe("Summarize", func() {
	var baseTime time.Time

	BeforeEach(func() {
		baseTime = time.Date(2025, 10, 4, 10, 0, 0, 0, time.UTC)
	})

	When("the collection is empty", func() {
		It("returns all-zero totals", func() {
			summary := Summarize(nil)
			Expect(summary.Draft.IsZero()).To(BeTrue())
			Expect(summary.Submitted.IsZero()).To(BeTrue())
			Expect(summary.Approved.IsZero()).To(BeTrue())
		})
	})

	When("records span several statuses", func() {
		var records []Record

		BeforeEach(func() {
			records = []Record{
				{ID: "1", Status: StatusDraft, Amount: decimal.NewFromInt(5000), CreatedAt: baseTime},
				{ID: "2", Status: StatusSubmitted, Amount: decimal.NewFromInt(15000), CreatedAt: baseTime},
				{ID: "3", Status: StatusApproved, Amount: decimal.NewFromInt(25000), CreatedAt: baseTime},
				{ID: "4", Status: StatusSubmitted, Amount: decimal.NewFromInt(100), CreatedAt: baseTime},
			}
		})

		It("sums each status bucket", func() {
			summary := Summarize(records)
			Expect(summary.Draft.Equal(decimal.NewFromInt(5000))).To(BeTrue())
			Expect(summary.Submitted.Equal(decimal.NewFromInt(15100))).To(BeTrue())
			Expect(summary.Approved.Equal(decimal.NewFromInt(25000))).To(BeTrue())
		})

		It("is a pure function of its input", func() {
			first := Summarize(records)
			second := Summarize(records)
			Expect(first.Draft.Equal(second.Draft)).To(BeTrue())
			Expect(first.Submitted.Equal(second.Submitted)).To(BeTrue())
			Expect(first.Approved.Equal(second.Approved)).To(BeTrue())
		})
	})

	When("a record carries an unrecognized status", func() {
		It("excludes it from every bucket without failing", func() {
			records := []Record{
				{ID: "1", Status: StatusDraft, Amount: decimal.NewFromInt(100), CreatedAt: baseTime},
				{ID: "2", Status: Status("archived"), Amount: decimal.NewFromInt(999), CreatedAt: baseTime},
			}
			summary := Summarize(records)
			Expect(summary.Draft.Equal(decimal.NewFromInt(100))).To(BeTrue())
			Expect(summary.Submitted.IsZero()).To(BeTrue())
			Expect(summary.Approved.IsZero()).To(BeTrue())
		})
	})

	When("a record is rejected", func() {
		It("keeps it out of the dashboard totals", func() {
			records := []Record{
				{ID: "1", Status: StatusRejected, Amount: decimal.NewFromInt(700), CreatedAt: baseTime},
			}
			summary := Summarize(records)
			Expect(summary.Draft.IsZero()).To(BeTrue())
			Expect(summary.Submitted.IsZero()).To(BeTrue())
			Expect(summary.Approved.IsZero()).To(BeTrue())
		})
	})
})

var _ = Describe("Reconciler", func() {
	var (
		store      *mockRecordStore
		reconciler *Reconciler
		baseTime   time.Time
	)

	BeforeEach(func() {
		store = newMockRecordStore()
		baseTime = time.Date(2025, 10, 4, 10, 0, 0, 0, time.UTC)
		reconciler = NewReconcilerWithRetry(store, 10*time.Millisecond)
	})

	AfterEach(func() {
		reconciler.Close()
	})

	When("the store is empty", func() {
		It("exposes an empty list and zero totals", func() {
			Eventually(func() int {
				return len(reconciler.Snapshot().Records)
			}).Should(BeZero())
			summary := reconciler.Snapshot().Summary
			Expect(summary.Draft.IsZero()).To(BeTrue())
			Expect(summary.Submitted.IsZero()).To(BeTrue())
			Expect(summary.Approved.IsZero()).To(BeTrue())
		})
	})

	When("two submitted records arrive across snapshots", func() {
		It("totals them regardless of arrival order", func() {
			first := submittedRecord("b", 200, baseTime.Add(2*time.Second))
			second := submittedRecord("a", 100, baseTime.Add(time.Second))

			store.emit([]Record{first})
			store.emit([]Record{first, second})

			Eventually(func() bool {
				return reconciler.Snapshot().Summary.Submitted.Equal(decimal.NewFromInt(300))
			}).Should(BeTrue())
		})
	})

	When("records arrive", func() {
		BeforeEach(func() {
			store.emit([]Record{
				submittedRecord("old", 100, baseTime.Add(time.Second)),
				submittedRecord("new", 200, baseTime.Add(time.Minute)),
			})
			Eventually(func() int {
				return len(reconciler.Snapshot().Records)
			}).Should(Equal(2))
		})

		It("orders the list by creation time, newest first", func() {
			records := reconciler.Snapshot().Records
			Expect(records[0].ID).To(Equal("new"))
			Expect(records[1].ID).To(Equal("old"))
		})

		It("never exposes a summary torn from its list", func() {
			snapshot := reconciler.Snapshot()
			derived := Summarize(snapshot.Records)
			Expect(snapshot.Summary.Draft.Equal(derived.Draft)).To(BeTrue())
			Expect(snapshot.Summary.Submitted.Equal(derived.Submitted)).To(BeTrue())
			Expect(snapshot.Summary.Approved.Equal(derived.Approved)).To(BeTrue())
		})
	})

	Describe("Subscribe", func() {
		It("delivers the current snapshot immediately", func() {
			snapshots, cancel := reconciler.Subscribe()
			defer cancel()

			var snapshot Snapshot
			Eventually(snapshots).Should(Receive(&snapshot))
			Expect(snapshot.Records).To(BeEmpty())
		})

		It("delivers fresh snapshots as the collection changes", func() {
			snapshots, cancel := reconciler.Subscribe()
			defer cancel()

			// Drain the initial snapshot
			Eventually(snapshots).Should(Receive())

			store.emit([]Record{submittedRecord("a", 100, baseTime)})

			var snapshot Snapshot
			Eventually(snapshots).Should(Receive(&snapshot))
			Expect(snapshot.Summary.Submitted.Equal(decimal.NewFromInt(100))).To(BeTrue())
		})

		It("closes the channel after cancel and delivers nothing further", func() {
			snapshots, cancel := reconciler.Subscribe()
			cancel()
			Eventually(snapshots).Should(BeClosed())
		})
	})

	Describe("feed failure", func() {
		var (
			flakyStore *mockRecordStore
			survivor   *Reconciler
		)

		BeforeEach(func() {
			flakyStore = newMockRecordStore()
			// A generous retry pause keeps the degraded window observable
			survivor = NewReconcilerWithRetry(flakyStore, 200*time.Millisecond)
		})

		AfterEach(func() {
			survivor.Close()
		})

		It("flags degraded state and resubscribes", func() {
			Eventually(func() int {
				flakyStore.mu.Lock()
				defer flakyStore.mu.Unlock()
				return flakyStore.subscribes
			}).Should(Equal(1))

			flakyStore.closeFeeds()

			Eventually(survivor.Degraded).Should(BeTrue())

			// The reconciler comes back on its own and clears the flag
			// once a snapshot flows again
			Eventually(func() int {
				flakyStore.mu.Lock()
				defer flakyStore.mu.Unlock()
				return flakyStore.subscribes
			}).Should(BeNumerically(">", 1))

			Eventually(survivor.Degraded).Should(BeFalse())
		})
	})

	Describe("Close", func() {
		It("releases the subscription and stops observing", func() {
			Expect(reconciler.Close()).To(Succeed())

			store.emit([]Record{submittedRecord("late", 100, baseTime)})

			Consistently(func() int {
				return len(reconciler.Snapshot().Records)
			}).Should(BeZero())
		})

		It("closes subscriber channels", func() {
			snapshots, cancel := reconciler.Subscribe()
			defer cancel()

			Expect(reconciler.Close()).To(Succeed())
			Eventually(snapshots).Should(BeClosed())
		})
	})
})
