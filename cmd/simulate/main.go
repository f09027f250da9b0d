package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"order-console/internal/app"
	"order-console/internal/auth"
	"order-console/internal/config"
	"order-console/internal/domain"
	"order-console/internal/infrastructure/webhook"
	"order-console/internal/logger"
	"order-console/internal/service"
)

const simulatedOrders = 10

// printSink stands in for the chat webhook when GLOBAL_WEBHOOK_URL is unset.
func printSink() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg webhook.Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		fmt.Printf("    [webhook] %s\n", msg.Content.Text)
	}))
}

func main() {
	if os.Getenv("JWT_SECRET") == "" {
		_ = os.Setenv("JWT_SECRET", "simulate-only-secret")
	}
	if os.Getenv("GLOBAL_WEBHOOK_URL") == "" {
		sink := printSink()
		defer sink.Close()
		_ = os.Setenv("GLOBAL_WEBHOOK_URL", sink.URL)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.Log)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start")
	}
	defer a.Close()

	customer, err := a.Profiles.Ensure(ctx, service.NewProfile{
		Email: "customer@simulate.local", Password: "customer-pass", Role: domain.RoleCustomer, ClientName: "SimCorp",
	})
	if err != nil {
		log.WithError(err).Fatal("seed customer")
	}
	employee, err := a.Profiles.Ensure(ctx, service.NewProfile{
		Email: "employee@simulate.local", Password: "employee-pass", Role: domain.RoleEmployee, Nickname: "sim-bot",
	})
	if err != nil {
		log.WithError(err).Fatal("seed employee")
	}
	customerCtx := auth.WithUserID(ctx, customer.ID)
	employeeCtx := auth.WithUserID(ctx, employee.ID)

	fmt.Printf("--- STARTING SIMULATION (%d ORDERS) ---\n", simulatedOrders)
	for i := 0; i < simulatedOrders; i++ {
		order, err := a.Orders.CreateOrder(customerCtx, customer.ID, domain.CreateOrderInput{
			AccountCount: 1 + rand.IntN(20),
			Timezone:     domain.Timezones[rand.IntN(len(domain.Timezones))],
		})
		if err != nil {
			fmt.Printf("[%d] create failed: %v\n", i+1, err)
			continue
		}
		fmt.Printf("[%d] created order %s (%d accounts, %s)\n", i+1, order.ID, order.AccountCount, order.Timezone)

		if err := a.Orders.UpdateOrderStatus(employeeCtx, order.ID, domain.OrderProcessing, ""); err != nil {
			fmt.Printf("    -> processing failed: %v\n", err)
			continue
		}

		final := domain.OrderCompleted
		if rand.IntN(4) == 0 {
			final = domain.OrderCancelled
		}
		if err := a.Orders.UpdateOrderStatus(employeeCtx, order.ID, final, "employee-pass"); err != nil {
			fmt.Printf("    -> %s failed: %v\n", final, err)
		} else {
			fmt.Printf("    -> %s\n", final)
		}

		// A terminal order must refuse further transitions.
		if err := a.Orders.UpdateOrderStatus(employeeCtx, order.ID, domain.OrderPending, ""); err != nil {
			fmt.Printf("    -> reopen rejected: %v\n", err)
		}
		fmt.Println("---------------------------------------------------")
		time.Sleep(50 * time.Millisecond)
	}

	orders, err := a.Orders.ListOrders(employeeCtx)
	if err != nil {
		log.WithError(err).Fatal("list orders")
	}
	stats := service.Stats(orders)
	fmt.Printf("orders=%d pending=%d processing=%d completed=%d cancelled=%d accounts_provided=%d\n",
		stats.Total, stats.Pending, stats.Processing, stats.Completed, stats.Cancelled, stats.TotalAccountsProvided)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := a.Dispatcher.Wait(waitCtx); err != nil {
		log.WithError(err).Warn("notifications still in flight")
	}
}
