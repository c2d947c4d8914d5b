package cplscheme

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/ArminHamedi/precice/mesh"
)

var _ = Describe("Resuming", func() {
	var (
		mockCtrl *gomock.Controller
		comm     *MockCommunication
		forces   *mesh.Data
		displ    *mesh.Data
		measure  *countingMeasure
		st       State
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		comm = NewMockCommunication(mockCtrl)
		comm.EXPECT().IsConnected().Return(true).AnyTimes()
		forces = mesh.NewData(0, "Forces", "Surface", 2)
		displ = mesh.NewData(1, "Displacements", "Surface", 2)
		measure = &countingMeasure{n: 2}

		st = State{
			Time:            0.2,
			Timesteps:       2,
			TimestepLength:  0.1,
			IsInitialized:   true,
			MaxIterations:   10,
			Iterations:      1,
			TotalIterations: 5,
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	solid := func() *SerialImplicit {
		s, err := MakeBuilder().
			WithParticipants("Fluid", "Solid").
			WithLocalParticipant("Solid").
			WithCommunication(comm).
			WithTimestepLength(0.1).
			WithMaxTimesteps(5).
			WithMaxIterations(10).
			WithConvergenceMeasure(1, false, measure).
			WithLogger(quietLogger()).
			BuildImplicit("FluidSolid")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.AddDataToSend(displ, true)).To(Succeed())
		Expect(s.AddDataToReceive(forces, false)).To(Succeed())

		return s
	}

	allowExchange := func() {
		comm.EXPECT().StartSendPackage().Return(nil).AnyTimes()
		comm.EXPECT().SendBool(gomock.Any()).Return(nil).AnyTimes()
		comm.EXPECT().SendFloat64(gomock.Any()).Return(nil).AnyTimes()
		comm.EXPECT().SendFloat64s(gomock.Any()).Return(nil).AnyTimes()
		comm.EXPECT().FinishSendPackage().Return(nil).AnyTimes()
		comm.EXPECT().StartReceivePackage().Return(nil).AnyTimes()
		comm.EXPECT().ReceiveFloat64().Return(0.1, nil).AnyTimes()
		comm.EXPECT().ReceiveFloat64s(gomock.Any()).Return(nil).AnyTimes()
		comm.EXPECT().FinishReceivePackage().Return(nil).AnyTimes()
	}

	It("should advance after the state was set on a fresh scheme", func() {
		s := solid()
		allowExchange()

		Expect(s.SetState(st)).To(Succeed())

		Expect(s.AddComputedTime(0.1)).To(Succeed())
		Expect(s.Advance()).To(Succeed())

		Expect(s.Timesteps()).To(Equal(2))
		Expect(s.Iterations()).To(Equal(2))
		Expect(s.TotalIterations()).To(Equal(6))
		Expect(s.IsActionRequired(ActionReadIterationCheckpoint)).To(BeTrue())

		s.PerformedAction(ActionReadIterationCheckpoint)
		Expect(s.AddComputedTime(0.1)).To(Succeed())
		Expect(s.Advance()).To(Succeed())

		Expect(s.Timesteps()).To(Equal(3))
		Expect(s.Time()).To(BeNumerically("~", 0.3, 1e-12))
		Expect(s.Iterations()).To(Equal(1))
		Expect(s.IsActionRequired(ActionWriteIterationCheckpoint)).To(BeTrue())
		Expect(measure.calls).To(Equal(2))
	})

	Context("when restoring", func() {
		It("should start where the state was taken", func() {
			s := solid()
			Expect(s.Restore(st)).To(Succeed())

			Expect(IsKind(s.Initialize(0, 0), KindUsage)).To(BeTrue())
			Expect(IsKind(s.Initialize(0.2, 3), KindUsage)).To(BeTrue())
			Expect(s.IsInitialized()).To(BeFalse())
		})

		It("should ask for the simulation checkpoint", func() {
			s := solid()
			allowExchange()
			Expect(s.Restore(st)).To(Succeed())

			Expect(s.Initialize(0.2, 2)).To(Succeed())

			Expect(s.Time()).To(Equal(0.2))
			Expect(s.Timesteps()).To(Equal(2))
			Expect(s.TotalIterations()).To(Equal(5))
			Expect(s.HasToSendInitData()).To(BeFalse())
			Expect(s.IsActionRequired(ActionWriteInitialData)).To(BeFalse())
			Expect(s.HasDataBeenExchanged()).To(BeTrue())
			Expect(s.IsActionRequired(ActionReadSimulationCheckpoint)).
				To(BeTrue())
			Expect(s.IsActionRequired(ActionWriteIterationCheckpoint)).
				To(BeTrue())

			s.PerformedAction(ActionReadSimulationCheckpoint)
			s.PerformedAction(ActionWriteIterationCheckpoint)
			Expect(s.AddComputedTime(0.1)).To(Succeed())
			Expect(s.Advance()).To(Succeed())
			Expect(s.TotalIterations()).To(Equal(6))
		})

		It("should not restore an initialized scheme", func() {
			s := solid()
			allowExchange()
			Expect(s.Initialize(0, 0)).To(Succeed())
			Expect(s.IsActionRequired(ActionWriteInitialData)).To(BeTrue())

			Expect(IsKind(s.Restore(st), KindUsage)).To(BeTrue())
		})

		DescribeTable("should refuse states it cannot resume from",
			func(change func(*State)) {
				s := solid()
				change(&st)

				Expect(IsKind(s.Restore(st), KindUsage)).To(BeTrue())
			},
			Entry("not initialized", func(st *State) { st.IsInitialized = false }),
			Entry("negative time", func(st *State) { st.Time = -0.1 }),
			Entry("negative timesteps", func(st *State) { st.Timesteps = -1 }),
			Entry("within a timestep",
				func(st *State) { st.ComputedTimestepPart = 0.05 }),
		)
	})
})
